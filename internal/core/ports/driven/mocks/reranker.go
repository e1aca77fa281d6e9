package mocks

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// MockReranker is a mock implementation of Reranker. It orders
// candidates by naive term overlap with the query, which is enough to
// observe reordering in tests.
type MockReranker struct {
	err error

	RerankCalls int
	LastMode    domain.SearchMode
}

// NewMockReranker creates a new MockReranker
func NewMockReranker() *MockReranker {
	return &MockReranker{}
}

func (m *MockReranker) Rerank(ctx context.Context, mode domain.SearchMode, query string, candidates []domain.Document, k int) ([]domain.Document, error) {
	m.RerankCalls++
	m.LastMode = mode
	if m.err != nil {
		return nil, m.err
	}

	terms := strings.Fields(strings.ToLower(query))
	scored := make([]domain.Document, len(candidates))
	copy(scored, candidates)
	sort.SliceStable(scored, func(i, j int) bool {
		return overlap(scored[i].Text, terms) > overlap(scored[j].Text, terms)
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func overlap(text string, terms []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			n++
		}
	}
	return n
}

// Helper methods for testing

func (m *MockReranker) SetError(err error) {
	m.err = err
}
