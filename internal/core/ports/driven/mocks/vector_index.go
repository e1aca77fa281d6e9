package mocks

import (
	"context"
	"errors"
	"sort"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory mock implementation of VectorIndex
// using dot-product similarity
type MockVectorIndex struct {
	ids     []string
	vectors [][]float32
	dropped bool

	IndexCalls  int
	SearchCalls int
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{}
}

func (m *MockVectorIndex) IndexBatch(ctx context.Context, docs []domain.Document, embeddings [][]float32) error {
	m.IndexCalls++
	if len(docs) != len(embeddings) {
		return domain.ErrInvalidInput
	}
	for i, doc := range docs {
		m.ids = append(m.ids, doc.ID)
		m.vectors = append(m.vectors, embeddings[i])
	}
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, embedding []float32, k int) ([]string, []float64, error) {
	m.SearchCalls++
	type hit struct {
		id    string
		score float64
	}
	hits := make([]hit, 0, len(m.ids))
	for i, id := range m.ids {
		var dot float64
		for j := range embedding {
			if j < len(m.vectors[i]) {
				dot += float64(embedding[j]) * float64(m.vectors[i][j])
			}
		}
		hits = append(hits, hit{id: id, score: dot})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	ids := make([]string, len(hits))
	scores := make([]float64, len(hits))
	for i, h := range hits {
		ids[i] = h.id
		scores[i] = h.score
	}
	return ids, scores, nil
}

func (m *MockVectorIndex) Drop(ctx context.Context) error {
	m.ids = nil
	m.vectors = nil
	m.dropped = true
	return nil
}

// Helper methods for testing

func (m *MockVectorIndex) Dropped() bool {
	return m.dropped
}

// MockVectorIndexFactory hands out MockVectorIndex instances and records
// every index it created
type MockVectorIndexFactory struct {
	failNext bool
	Created  []*MockVectorIndex
}

// NewMockVectorIndexFactory creates a new MockVectorIndexFactory
func NewMockVectorIndexFactory() *MockVectorIndexFactory {
	return &MockVectorIndexFactory{}
}

func (f *MockVectorIndexFactory) New(ctx context.Context) (driven.VectorIndex, error) {
	if f.failNext {
		f.failNext = false
		return nil, errors.New("vector backend unavailable")
	}
	idx := NewMockVectorIndex()
	f.Created = append(f.Created, idx)
	return idx, nil
}

// SetFailNext makes the next New call fail
func (f *MockVectorIndexFactory) SetFailNext(fail bool) {
	f.failNext = fail
}
