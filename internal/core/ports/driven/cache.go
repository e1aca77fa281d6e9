package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// ResultCache stores serialized search results keyed by normalized query.
// Caching is a performance optimization, not part of the correctness path:
// implementations must degrade rather than fail the caller.
type ResultCache interface {
	// Get returns the cached items for a key. The second return is false
	// on a miss. Corrupt stored data is returned as a single raw item
	// rather than an error.
	Get(ctx context.Context, key string) ([]domain.SearchItem, bool, error)

	// Set stores items under a key with the given TTL. Serialization
	// failures degrade to a best-effort textual representation.
	Set(ctx context.Context, key string, items []domain.SearchItem, ttl time.Duration) error

	// TTL returns the remaining lifetime of a key, or a negative duration
	// when the key does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Clear removes all cached entries
	Clear(ctx context.Context) error
}

// PopularityTracker records which queries are asked most often, feeding
// the cache warmer.
type PopularityTracker interface {
	// Touch increments the popularity of a normalized query
	Touch(ctx context.Context, query string) error

	// Top returns the n most popular queries, most popular first
	Top(ctx context.Context, n int) ([]string, error)
}
