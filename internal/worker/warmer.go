package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driving"
)

// Warmer keeps cached results for popular queries fresh.
// It periodically inspects the remaining TTL of each popular query and
// re-runs the search before the entry expires.
type Warmer struct {
	searchService driving.SearchService
	cache         driven.ResultCache
	popularity    driven.PopularityTracker
	logger        *slog.Logger

	// Configuration
	interval     time.Duration
	ttlThreshold time.Duration
	topN         int
	mode         domain.SearchMode
	k            int

	// Internal state
	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WarmerConfig holds configuration for the cache warmer.
type WarmerConfig struct {
	SearchService driving.SearchService
	Cache         driven.ResultCache
	Popularity    driven.PopularityTracker
	Logger        *slog.Logger

	Interval     time.Duration     // How often to scan popular queries
	TTLThreshold time.Duration     // Refresh entries whose TTL drops below this
	TopN         int               // How many popular queries to consider per cycle
	Mode         domain.SearchMode // Mode used for warming searches
	K            int               // Result count requested when warming
}

// NewWarmer creates a new cache warmer.
func NewWarmer(cfg WarmerConfig) *Warmer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ttlThreshold := cfg.TTLThreshold
	if ttlThreshold <= 0 {
		ttlThreshold = 10 * time.Minute
	}

	topN := cfg.TopN
	if topN <= 0 {
		topN = 10
	}

	mode := cfg.Mode
	if mode == "" {
		mode = domain.SearchModeBalanced
	}

	k := cfg.K
	if k <= 0 {
		k = 10
	}

	return &Warmer{
		searchService: cfg.SearchService,
		cache:         cfg.Cache,
		popularity:    cfg.Popularity,
		logger:        logger,
		interval:      interval,
		ttlThreshold:  ttlThreshold,
		topN:          topN,
		mode:          mode,
		k:             k,
	}
}

// Start begins the warming loop.
// It runs until Stop is called or context is cancelled.
func (w *Warmer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("cache warmer starting",
		"interval", w.interval,
		"ttl_threshold", w.ttlThreshold,
		"top_n", w.topN,
	)

	go func() {
		defer close(w.doneCh)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				w.logger.Info("cache warmer context cancelled")
				return
			case <-w.stopCh:
				w.logger.Info("cache warmer stop signal received")
				return
			case <-ticker.C:
				w.warmCycle(ctx)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the warmer.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	w.mu.Unlock()

	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("cache warmer stopped")
}

// Wait blocks until the warmer stops.
func (w *Warmer) Wait() {
	<-w.doneCh
}

// Running reports whether the warming loop is active.
func (w *Warmer) Running() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// warmCycle refreshes every popular query whose cache entry is about
// to expire.
func (w *Warmer) warmCycle(ctx context.Context) {
	queries, err := w.popularity.Top(ctx, w.topN)
	if err != nil {
		w.logger.Error("failed to list popular queries", "error", err)
		return
	}

	refreshed := 0
	for _, query := range queries {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		if w.warmQuery(ctx, query) {
			refreshed++
		}
	}

	if refreshed > 0 {
		w.logger.Info("warm cycle complete",
			"candidates", len(queries),
			"refreshed", refreshed,
		)
	}
}

// warmQuery refreshes a single query if its cache entry is missing or
// close to expiry. Returns true if a refresh search was run.
func (w *Warmer) warmQuery(ctx context.Context, query string) bool {
	key := domain.NormalizeQuery(query)
	if key == "" {
		return false
	}

	// A negative TTL means the key is absent; that is a refresh
	// candidate, not an error.
	ttl, err := w.cache.TTL(ctx, key)
	if err != nil {
		w.logger.Error("cache ttl lookup failed", "query", key, "error", err)
		return false
	}
	if ttl > w.ttlThreshold {
		return false
	}

	// Evict the stale entry so the search repopulates the cache with
	// fresh provider results instead of serving the old ones back.
	if ttl > 0 {
		if delErr := w.cache.Delete(ctx, key); delErr != nil {
			w.logger.Error("cache eviction failed", "query", key, "error", delErr)
			return false
		}
	}

	start := time.Now()
	result, err := w.searchService.Search(ctx, domain.SearchRequest{
		Query: query,
		Mode:  w.mode,
		K:     w.k,
	})
	if err != nil {
		w.logger.Warn("warming search failed", "query", key, "error", err)
		return false
	}

	w.logger.Debug("query warmed",
		"query", key,
		"results", result.TotalCount,
		"took", time.Since(start),
	)
	return true
}
