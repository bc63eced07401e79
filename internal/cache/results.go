// Package cache keeps recent optimization results in Redis so repeated
// reads of a run skip the blob store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/ppc-optimizer/internal/domain"
)

// ResultCache stores results as JSON under <prefix>result:<run id>.
type ResultCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewResultCache creates a cache. A zero ttl keeps entries for one hour.
func NewResultCache(client *redis.Client, prefix string, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ResultCache) key(runID string) string {
	return c.prefix + "result:" + runID
}

// Get returns the cached result, or nil without error on a miss.
func (c *ResultCache) Get(ctx context.Context, runID string) (*domain.Result, error) {
	data, err := c.client.Get(ctx, c.key(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", runID, err)
	}
	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", runID, err)
	}
	return &res, nil
}

// Set stores res under its run ID.
func (c *ResultCache) Set(ctx context.Context, res *domain.Result) error {
	if res.RunID == "" {
		return errors.New("cache set: result has no run id")
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", res.RunID, err)
	}
	if err := c.client.Set(ctx, c.key(res.RunID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", res.RunID, err)
	}
	return nil
}

// Invalidate drops a cached result.
func (c *ResultCache) Invalidate(ctx context.Context, runID string) error {
	return c.client.Del(ctx, c.key(runID)).Err()
}
