package mocks

import (
	"context"

	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
)

// MockSearchLogStore records log entries in memory
type MockSearchLogStore struct {
	Entries []driven.SearchLogEntry
	err     error
}

// NewMockSearchLogStore creates a new MockSearchLogStore
func NewMockSearchLogStore() *MockSearchLogStore {
	return &MockSearchLogStore{}
}

func (m *MockSearchLogStore) Record(ctx context.Context, entry driven.SearchLogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.Entries = append(m.Entries, entry)
	return nil
}

// SetError makes Record return the given error
func (m *MockSearchLogStore) SetError(err error) {
	m.err = err
}
