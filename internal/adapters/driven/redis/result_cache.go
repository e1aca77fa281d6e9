package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.ResultCache = (*ResultCache)(nil)

const (
	// Key prefixes for Redis
	resultPrefix = "search:result:"
)

// ResultCache implements driven.ResultCache using Redis.
// Entries expire via Redis TTL; keys are normalized queries.
type ResultCache struct {
	client *redis.Client
}

// NewResultCache creates a new Redis-backed ResultCache
func NewResultCache(client *redis.Client) *ResultCache {
	return &ResultCache{client: client}
}

// Get returns the cached items for a key. Data that no longer
// deserializes is returned as one raw item instead of an error, so a
// serialization format change never breaks reads.
func (c *ResultCache) Get(ctx context.Context, key string) ([]domain.SearchItem, bool, error) {
	data, err := c.client.Get(ctx, resultPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached result: %w", err)
	}

	var items []domain.SearchItem
	if err := json.Unmarshal(data, &items); err != nil {
		return []domain.SearchItem{{Content: string(data)}}, true, nil
	}
	return items, true, nil
}

// Set stores items under a key with the given TTL. If the items cannot
// be serialized the textual rendering is stored instead; the cache never
// rejects a result set.
func (c *ResultCache) Set(ctx context.Context, key string, items []domain.SearchItem, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(items)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", items))
	}

	if err := c.client.Set(ctx, resultPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache result: %w", err)
	}
	return nil
}

// TTL returns the remaining lifetime of a key. Missing keys report a
// negative duration, mirroring Redis semantics.
func (c *ResultCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, resultPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get ttl: %w", err)
	}
	return ttl, nil
}

// Delete removes a key
func (c *ResultCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, resultPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached result: %w", err)
	}
	return nil
}

// Clear removes all cached entries
func (c *ResultCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, resultPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	return nil
}
