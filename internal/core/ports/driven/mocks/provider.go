package mocks

import (
	"context"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// MockProvider is a mock implementation of Provider for testing
type MockProvider struct {
	name string
	docs []domain.Document
	err  error

	RunCalls int
	Queries  []string
}

// NewMockProvider creates a provider that returns the given documents
func NewMockProvider(name string, docs []domain.Document) *MockProvider {
	return &MockProvider{name: name, docs: docs}
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Run(ctx context.Context, query string) ([]domain.Document, error) {
	m.RunCalls++
	m.Queries = append(m.Queries, query)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Document, len(m.docs))
	copy(out, m.docs)
	return out, nil
}

// Helper methods for testing

func (m *MockProvider) SetError(err error) {
	m.err = err
}
