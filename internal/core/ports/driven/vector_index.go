package driven

import (
	"context"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// VectorIndex handles vector similarity search. The hybrid index builds
// one per request and drops it afterwards; when the remote backend is
// unreachable the hybrid index substitutes a local in-memory
// implementation transparently.
type VectorIndex interface {
	// IndexBatch adds documents and their embeddings to the index.
	// Implementations backed by schema-constrained stores flatten list
	// metadata via domain.FlattenMetadata before writing.
	IndexBatch(ctx context.Context, docs []domain.Document, embeddings [][]float32) error

	// Search finds the k nearest documents, returning ids and similarity
	// scores in descending score order
	Search(ctx context.Context, embedding []float32, k int) ([]string, []float64, error)

	// Drop removes the index and its vectors
	Drop(ctx context.Context) error
}

// VectorIndexFactory creates a request-scoped VectorIndex. Each request
// gets its own index namespace so concurrent requests never share index
// state.
type VectorIndexFactory interface {
	New(ctx context.Context) (VectorIndex, error)
}
