package driving

import (
	"context"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// SearchService is the driving port for product search
type SearchService interface {
	// Search runs the full pipeline for one request: cache lookup,
	// provider fan-out, per-request indexing, retrieval, reranking and
	// filtering. An upstream outage degrades the result set; only an
	// invalid request or a cancelled context fails the call.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)
}
