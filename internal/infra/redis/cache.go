package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/unifin/unifin/internal/platform/snapshot"
	"github.com/unifin/unifin/pkg/logger"
)

const (
	// DefaultTTL is the default lifetime of a cached snapshot
	DefaultTTL = 5 * time.Minute

	// keyPrefix namespaces snapshot cache keys
	keyPrefix = "snapshot:"
)

// granularities are all cache key variants stored per user
var granularities = []string{"daily", "weekly", "monthly"}

// NewClient creates a Redis client and verifies connectivity
func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// SnapshotCache is a Redis-backed cache for computed snapshot overviews.
// Entries expire on their own; link changes evict them early.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewSnapshotCache creates a snapshot cache with the given TTL.
// A non-positive TTL falls back to the default.
func NewSnapshotCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SnapshotCache{
		client: client,
		ttl:    ttl,
		logger: log.WithField("component", "snapshot_cache"),
	}
}

// Get retrieves a cached overview. A miss returns nil without error.
func (c *SnapshotCache) Get(ctx context.Context, userID uuid.UUID, granularity string) (*snapshot.Overview, error) {
	key := cacheKey(userID, granularity)

	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached snapshot: %w", err)
	}

	var overview snapshot.Overview
	if err := json.Unmarshal([]byte(val), &overview); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}

	c.logger.Debug("cache hit", "key", key)
	return &overview, nil
}

// Set stores an overview with the configured TTL
func (c *SnapshotCache) Set(ctx context.Context, userID uuid.UUID, granularity string, o *snapshot.Overview) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	key := cacheKey(userID, granularity)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cached snapshot: %w", err)
	}

	return nil
}

// Invalidate drops every cached granularity for the user
func (c *SnapshotCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	keys := make([]string, 0, len(granularities))
	for _, g := range granularities {
		keys = append(keys, cacheKey(userID, g))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached snapshots: %w", err)
	}

	return nil
}

func cacheKey(userID uuid.UUID, granularity string) string {
	if granularity == "" {
		granularity = "monthly"
	}
	return fmt.Sprintf("%s%s:%s", keyPrefix, userID.String(), granularity)
}
