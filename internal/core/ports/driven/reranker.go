package driven

import (
	"context"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// Reranker reorders a small candidate set with a second-pass relevance
// model selected by mode: a lighter, cheaper model for fast and a heavier
// one for quality. At most k documents are returned, ordered by
// descending relevance. A reranker failure is non-fatal; the pipeline
// falls back to the pre-rerank combined order.
type Reranker interface {
	Rerank(ctx context.Context, mode domain.SearchMode, query string, candidates []domain.Document, k int) ([]domain.Document, error)
}
