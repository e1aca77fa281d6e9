package redis

import (
	"context"
	"fmt"

	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.PopularityTracker = (*PopularityTracker)(nil)

const popularityKey = "search:popularity"

// PopularityTracker implements driven.PopularityTracker using a Redis
// sorted set scored by hit count
type PopularityTracker struct {
	client *redis.Client
}

// NewPopularityTracker creates a new Redis-backed PopularityTracker
func NewPopularityTracker(client *redis.Client) *PopularityTracker {
	return &PopularityTracker{client: client}
}

// Touch increments the popularity of a normalized query
func (p *PopularityTracker) Touch(ctx context.Context, query string) error {
	if err := p.client.ZIncrBy(ctx, popularityKey, 1, query).Err(); err != nil {
		return fmt.Errorf("failed to track query popularity: %w", err)
	}
	return nil
}

// Top returns the n most popular queries, most popular first
func (p *PopularityTracker) Top(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	queries, err := p.client.ZRevRange(ctx, popularityKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get top queries: %w", err)
	}
	return queries, nil
}
