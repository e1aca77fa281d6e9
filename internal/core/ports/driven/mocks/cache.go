package mocks

import (
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

// MockResultCache is an in-memory mock implementation of ResultCache
type MockResultCache struct {
	entries map[string]cacheEntry
	failOps bool

	GetCalls int
	SetCalls int
}

type cacheEntry struct {
	items     []domain.SearchItem
	expiresAt time.Time
}

// NewMockResultCache creates a new MockResultCache
func NewMockResultCache() *MockResultCache {
	return &MockResultCache{entries: make(map[string]cacheEntry)}
}

func (m *MockResultCache) Get(ctx context.Context, key string) ([]domain.SearchItem, bool, error) {
	m.GetCalls++
	if m.failOps {
		return nil, false, domain.ErrServiceUnavailable
	}
	entry, ok := m.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return entry.items, true, nil
}

func (m *MockResultCache) Set(ctx context.Context, key string, items []domain.SearchItem, ttl time.Duration) error {
	m.SetCalls++
	if m.failOps {
		return domain.ErrServiceUnavailable
	}
	m.entries[key] = cacheEntry{items: items, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MockResultCache) TTL(ctx context.Context, key string) (time.Duration, error) {
	if m.failOps {
		return 0, domain.ErrServiceUnavailable
	}
	entry, ok := m.entries[key]
	if !ok {
		// Mirrors the Redis convention for missing keys
		return -2 * time.Second, nil
	}
	return time.Until(entry.expiresAt), nil
}

func (m *MockResultCache) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

func (m *MockResultCache) Clear(ctx context.Context) error {
	m.entries = make(map[string]cacheEntry)
	return nil
}

// Helper methods for testing

func (m *MockResultCache) SetFailOps(fail bool) {
	m.failOps = fail
}

func (m *MockResultCache) Len() int {
	return len(m.entries)
}

// MockPopularityTracker is an in-memory mock implementation of PopularityTracker
type MockPopularityTracker struct {
	counts map[string]float64
}

// NewMockPopularityTracker creates a new MockPopularityTracker
func NewMockPopularityTracker() *MockPopularityTracker {
	return &MockPopularityTracker{counts: make(map[string]float64)}
}

func (m *MockPopularityTracker) Touch(ctx context.Context, query string) error {
	m.counts[query]++
	return nil
}

func (m *MockPopularityTracker) Top(ctx context.Context, n int) ([]string, error) {
	queries := make([]string, 0, len(m.counts))
	for q := range m.counts {
		queries = append(queries, q)
	}
	sort.Slice(queries, func(i, j int) bool {
		if m.counts[queries[i]] != m.counts[queries[j]] {
			return m.counts[queries[i]] > m.counts[queries[j]]
		}
		return queries[i] < queries[j]
	})
	if len(queries) > n {
		queries = queries[:n]
	}
	return queries, nil
}
