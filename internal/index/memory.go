package index

import (
	"context"
	"math"
	"sort"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
)

// MemoryIndex is an in-process vector index over cosine similarity. The
// hybrid index falls back to it when the remote backend is unreachable,
// so a search request never fails just because the vector store is down.
type MemoryIndex struct {
	ids     []string
	vectors [][]float32
	norms   []float64
}

var _ driven.VectorIndex = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// IndexBatch stores document ids and embeddings. Metadata stays with the
// documents held by the caller; only vectors live here.
func (m *MemoryIndex) IndexBatch(_ context.Context, docs []domain.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return domain.ErrInvalidInput
	}
	for i, doc := range docs {
		m.ids = append(m.ids, doc.ID)
		m.vectors = append(m.vectors, embeddings[i])
		m.norms = append(m.norms, norm(embeddings[i]))
	}
	return nil
}

// Search returns the k most similar document ids by cosine similarity
func (m *MemoryIndex) Search(_ context.Context, embedding []float32, k int) ([]string, []float64, error) {
	if k <= 0 || len(m.ids) == 0 {
		return nil, nil, nil
	}

	queryNorm := norm(embedding)
	type hit struct {
		idx   int
		score float64
	}
	hits := make([]hit, 0, len(m.ids))
	for i := range m.ids {
		hits = append(hits, hit{idx: i, score: cosine(embedding, m.vectors[i], queryNorm, m.norms[i])})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	if len(hits) > k {
		hits = hits[:k]
	}

	ids := make([]string, len(hits))
	scores := make([]float64, len(hits))
	for i, h := range hits {
		ids[i] = m.ids[h.idx]
		scores[i] = h.score
	}
	return ids, scores, nil
}

// Drop releases the stored vectors
func (m *MemoryIndex) Drop(_ context.Context) error {
	m.ids = nil
	m.vectors = nil
	m.norms = nil
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}
