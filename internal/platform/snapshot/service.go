package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unifin/unifin/internal/engine"
	"github.com/unifin/unifin/internal/engine/aggregate"
	"github.com/unifin/unifin/internal/platform/link"
	"github.com/unifin/unifin/pkg/logger"
)

// maxConcurrentFetches bounds how many provider calls run at once per build
const maxConcurrentFetches = 4

// Service builds unified snapshots. It fetches every linked source
// concurrently, hands the raw payloads to the engine, and caches the result.
type Service struct {
	links      LinkProvider
	wallets    WalletScanner
	bank       BankFetcher
	broker     BrokerFetcher
	engine     *engine.Engine
	cache      Cache
	windowDays int
	logger     *logger.Logger
}

// NewService creates a new snapshot service. cache may be nil to disable
// caching entirely.
func NewService(
	links LinkProvider,
	wallets WalletScanner,
	bank BankFetcher,
	broker BrokerFetcher,
	eng *engine.Engine,
	cache Cache,
	windowDays int,
	log *logger.Logger,
) *Service {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Service{
		links:      links,
		wallets:    wallets,
		bank:       bank,
		broker:     broker,
		engine:     eng,
		cache:      cache,
		windowDays: windowDays,
		logger:     log,
	}
}

// fetchResult is one link's outcome from the fan-out
type fetchResult struct {
	input   *engine.SourceInput
	failure *SourceFailure
}

// Build computes the overview for a user. A cached result is returned when
// one exists for the same granularity; link changes invalidate it. Only
// builds in the default timezone go through the cache, since the cache key
// carries no location and bucket boundaries shift with it.
func (s *Service) Build(ctx context.Context, userID uuid.UUID, opts aggregate.Options) (*Overview, error) {
	cacheable := opts.Location == nil || opts.Location == time.UTC

	if cacheable {
		if cached := s.cacheGet(ctx, userID, string(opts.Granularity)); cached != nil {
			return cached, nil
		}
	}

	links, err := s.links.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	inputs, failures := s.fetchAll(ctx, links)
	if err := ctx.Err(); err != nil {
		// A canceled build carries only the sources that finished; it is
		// neither returned nor cached.
		return nil, err
	}

	result := s.engine.BuildSnapshot(inputs, opts)

	overview := s.assemble(result, failures, string(opts.Granularity))
	if cacheable {
		s.cacheSet(ctx, userID, string(opts.Granularity), overview)
	}

	return overview, nil
}

// Invalidate drops any cached overview for the user
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, userID)
}

// fetchAll pulls every link's payload concurrently. One slow or failing
// provider never blocks the others; failures come back as SourceFailure
// entries instead of errors.
func (s *Service) fetchAll(ctx context.Context, links []*link.Link) ([]engine.SourceInput, []SourceFailure) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inputs   []engine.SourceInput
		failures []SourceFailure
	)

	sem := make(chan struct{}, maxConcurrentFetches)

	for _, l := range links {
		select {
		case <-ctx.Done():
			// In-flight fetches see the canceled context and exit quickly;
			// wait for them so the slices are not read mid-write.
			wg.Wait()
			return inputs, failures
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(l *link.Link) {
			defer wg.Done()
			defer func() { <-sem }()

			res := s.fetchOne(ctx, l)

			mu.Lock()
			defer mu.Unlock()
			if res.input != nil {
				inputs = append(inputs, *res.input)
			}
			if res.failure != nil {
				failures = append(failures, *res.failure)
			}
		}(l)
	}

	wg.Wait()
	return inputs, failures
}

// fetchOne resolves a single link to its raw provider payload
func (s *Service) fetchOne(ctx context.Context, l *link.Link) fetchResult {
	var (
		payload []byte
		err     error
	)

	switch l.Type {
	case link.TypeWallet:
		payload, err = s.wallets.Scan(ctx, l.Source, l.ExternalRef)
	case link.TypeBank:
		payload, err = s.bank.FetchTransactions(ctx, l.ExternalRef, s.windowDays)
	case link.TypeBroker:
		payload, err = s.broker.FetchHoldings(ctx, l.ExternalRef)
	default:
		err = fmt.Errorf("unknown link type %q", l.Type)
	}

	if err != nil {
		s.logger.WithContext(ctx).Warn("source fetch failed",
			"link_id", l.ID.String(),
			"source", string(l.Source),
			"error", err.Error(),
		)
		return fetchResult{failure: &SourceFailure{
			Source: l.Source,
			Link:   l.Name,
			Reason: err.Error(),
		}}
	}

	return fetchResult{input: &engine.SourceInput{
		Source:  l.Source,
		Payload: payload,
	}}
}

// assemble converts the engine result into the API-facing overview
func (s *Service) assemble(result *engine.Result, failures []SourceFailure, granularity string) *Overview {
	o := &Overview{
		GeneratedAt:        time.Now().UTC(),
		Granularity:        granularity,
		Snapshot:           result.Snapshot,
		UnavailableSources: failures,
		Duplicates:         result.Duplicates,
	}

	for src, err := range result.FailedSources {
		o.UnavailableSources = append(o.UnavailableSources, SourceFailure{
			Source: src,
			Reason: err.Error(),
		})
	}

	for _, re := range result.RecordErrors {
		o.SkippedRecords = append(o.SkippedRecords, RecordIssue{
			Source: re.Source,
			Reason: re.Reason,
		})
	}

	for _, ex := range result.Excluded {
		o.ExcludedInputs = append(o.ExcludedInputs, ExcludedInput{
			Kind:   ex.Kind,
			Ref:    ex.Ref,
			Reason: ex.Reason,
		})
	}

	return o
}

func (s *Service) cacheGet(ctx context.Context, userID uuid.UUID, granularity string) *Overview {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.Get(ctx, userID, granularity)
	if err != nil {
		s.logger.WithContext(ctx).Warn("snapshot cache read failed", "error", err.Error())
		return nil
	}
	if cached != nil {
		cached.Cached = true
	}
	return cached
}

func (s *Service) cacheSet(ctx context.Context, userID uuid.UUID, granularity string, o *Overview) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, userID, granularity, o); err != nil {
		s.logger.WithContext(ctx).Warn("snapshot cache write failed", "error", err.Error())
	}
}
