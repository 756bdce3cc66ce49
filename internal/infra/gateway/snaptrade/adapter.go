package snaptrade

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unifin/unifin/internal/engine/normalize"
	"github.com/unifin/unifin/internal/engine/record"
)

// Adapter normalizes brokerage holdings documents into canonical positions
type Adapter struct{}

// Compile-time check that Adapter implements ProviderAdapter
var _ normalize.ProviderAdapter = (*Adapter)(nil)

// NewAdapter creates the brokerage adapter
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Source returns the brokerage source type
func (a *Adapter) Source() record.Source {
	return record.SourceBroker
}

// ToCanonical converts a holdings document into positions. Market value and
// cost basis are derived from units and prices rather than taken from
// provider-computed totals. Malformed holdings are skipped and reported.
func (a *Adapter) ToCanonical(raw json.RawMessage) (record.Batch, []*normalize.RecordError, error) {
	var doc HoldingsResponse
	if err := json.Unmarshal(raw, &doc); err != nil {
		return record.Batch{}, nil, fmt.Errorf("%w: %v", normalize.ErrInvalidPayload, err)
	}
	if doc.Account.ID == "" {
		return record.Batch{}, nil, fmt.Errorf("%w: missing account id", normalize.ErrInvalidPayload)
	}

	observedAt := time.Now().UTC()

	var batch record.Batch
	var errs []*normalize.RecordError

	for _, h := range doc.Holdings {
		pos, err := position(h, doc.Account.ID, observedAt)
		if err != nil {
			errs = append(errs, normalize.NewRecordError(record.SourceBroker, err.Error(), h))
			continue
		}
		batch.Positions = append(batch.Positions, pos)
	}

	return batch, errs, nil
}

func position(h Holding, accountID string, observedAt time.Time) (record.Position, error) {
	if h.Symbol.Symbol == "" {
		return record.Position{}, fmt.Errorf("holding missing symbol")
	}
	if h.Units == nil {
		return record.Position{}, fmt.Errorf("holding %s missing units", h.Symbol.Symbol)
	}
	if h.LastPrice == nil {
		return record.Position{}, fmt.Errorf("holding %s missing price", h.Symbol.Symbol)
	}

	quantity := *h.Units
	if h.FractionalUnits != nil {
		quantity = quantity.Add(*h.FractionalUnits)
	}

	costBasis := decimal.Zero
	if h.AveragePurchase != nil {
		costBasis = quantity.Mul(*h.AveragePurchase)
	}

	return record.Position{
		Broker:      record.SourceBroker,
		AccountID:   accountID,
		Symbol:      h.Symbol.Symbol,
		Name:        h.Symbol.Description,
		Quantity:    quantity,
		CostBasis:   costBasis,
		MarketValue: quantity.Mul(*h.LastPrice),
		ObservedAt:  observedAt,
	}, nil
}
