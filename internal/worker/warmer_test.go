package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven/mocks"
)

// recordingSearchService records warming searches
type recordingSearchService struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (s *recordingSearchService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, req.Query)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SearchResult{Query: req.Query, TotalCount: 1}, nil
}

func (s *recordingSearchService) searched() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

func TestNewWarmer_Defaults(t *testing.T) {
	w := NewWarmer(WarmerConfig{})

	if w.interval != 5*time.Minute {
		t.Errorf("expected default interval 5m, got %v", w.interval)
	}
	if w.ttlThreshold != 10*time.Minute {
		t.Errorf("expected default ttl threshold 10m, got %v", w.ttlThreshold)
	}
	if w.topN != 10 {
		t.Errorf("expected default top n 10, got %d", w.topN)
	}
	if w.mode != domain.SearchModeBalanced {
		t.Errorf("expected balanced mode, got %s", w.mode)
	}
	if w.logger == nil {
		t.Error("expected default logger")
	}
}

func TestWarmer_StartStop(t *testing.T) {
	svc := &recordingSearchService{}
	w := NewWarmer(WarmerConfig{
		SearchService: svc,
		Cache:         mocks.NewMockResultCache(),
		Popularity:    mocks.NewMockPopularityTracker(),
		Interval:      time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start warmer: %v", err)
	}
	if !w.Running() {
		t.Error("expected warmer to be running")
	}

	// Second start is a no-op
	if err := w.Start(ctx); err != nil {
		t.Errorf("second start should not error: %v", err)
	}

	w.Stop()
	if w.Running() {
		t.Error("expected warmer to be stopped")
	}

	w.Stop() // Should not panic
}

func TestWarmer_ContextCancellation(t *testing.T) {
	w := NewWarmer(WarmerConfig{
		SearchService: &recordingSearchService{},
		Cache:         mocks.NewMockResultCache(),
		Popularity:    mocks.NewMockPopularityTracker(),
		Interval:      time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("failed to start warmer: %v", err)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		w.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("warmer did not stop after context cancellation")
		w.Stop()
	}
}

func TestWarmCycle_RefreshesExpiringEntries(t *testing.T) {
	svc := &recordingSearchService{}
	cache := mocks.NewMockResultCache()
	popularity := mocks.NewMockPopularityTracker()

	ctx := context.Background()
	_ = popularity.Touch(ctx, "fresh query")
	_ = popularity.Touch(ctx, "stale query")
	_ = popularity.Touch(ctx, "missing query")

	items := []domain.SearchItem{{Content: "x"}}
	_ = cache.Set(ctx, "fresh query", items, time.Hour)
	_ = cache.Set(ctx, "stale query", items, time.Minute)

	w := NewWarmer(WarmerConfig{
		SearchService: svc,
		Cache:         cache,
		Popularity:    popularity,
		TTLThreshold:  10 * time.Minute,
	})
	w.stopCh = make(chan struct{})

	w.warmCycle(ctx)

	searched := svc.searched()
	if len(searched) != 2 {
		t.Fatalf("expected 2 warming searches, got %v", searched)
	}
	for _, q := range searched {
		if q == "fresh query" {
			t.Error("fresh entry should not be refreshed")
		}
	}
}

func TestWarmCycle_EvictsBeforeRefresh(t *testing.T) {
	svc := &recordingSearchService{}
	cache := mocks.NewMockResultCache()
	popularity := mocks.NewMockPopularityTracker()

	ctx := context.Background()
	_ = popularity.Touch(ctx, "stale query")
	_ = cache.Set(ctx, "stale query", []domain.SearchItem{{Content: "old"}}, time.Minute)

	w := NewWarmer(WarmerConfig{
		SearchService: svc,
		Cache:         cache,
		Popularity:    popularity,
		TTLThreshold:  10 * time.Minute,
	})
	w.stopCh = make(chan struct{})

	w.warmCycle(ctx)

	// The stale entry must be gone before the search runs, otherwise
	// the search would serve the cached copy back.
	if _, found, _ := cache.Get(ctx, "stale query"); found {
		t.Error("stale entry should have been evicted")
	}
	if got := svc.searched(); len(got) != 1 || got[0] != "stale query" {
		t.Errorf("searched = %v, want [stale query]", got)
	}
}

func TestWarmCycle_TTLLookupFailureSkipsQuery(t *testing.T) {
	svc := &recordingSearchService{}
	cache := mocks.NewMockResultCache()
	popularity := mocks.NewMockPopularityTracker()

	ctx := context.Background()
	_ = popularity.Touch(ctx, "some query")
	cache.SetFailOps(true)

	w := NewWarmer(WarmerConfig{
		SearchService: svc,
		Cache:         cache,
		Popularity:    popularity,
	})
	w.stopCh = make(chan struct{})

	w.warmCycle(ctx)

	if got := svc.searched(); len(got) != 0 {
		t.Errorf("query with failing TTL lookup should be skipped, searched %v", got)
	}
}

func TestWarmCycle_SearchFailureDoesNotAbortCycle(t *testing.T) {
	svc := &recordingSearchService{err: errors.New("upstream down")}
	cache := mocks.NewMockResultCache()
	popularity := mocks.NewMockPopularityTracker()

	ctx := context.Background()
	_ = popularity.Touch(ctx, "first")
	_ = popularity.Touch(ctx, "second")

	w := NewWarmer(WarmerConfig{
		SearchService: svc,
		Cache:         cache,
		Popularity:    popularity,
	})
	w.stopCh = make(chan struct{})

	w.warmCycle(ctx)

	if got := svc.searched(); len(got) != 2 {
		t.Errorf("expected both queries attempted, got %v", got)
	}
}
