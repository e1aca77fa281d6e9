package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driving"
	"github.com/custodia-labs/shopscout-core/internal/filter"
	"github.com/custodia-labs/shopscout-core/internal/index"
	"github.com/custodia-labs/shopscout-core/internal/ingest"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// SearchConfig tunes the search pipeline
type SearchConfig struct {
	// RerankMargin is how many extra candidates quality mode retrieves
	// beyond k for the reranker to choose from
	RerankMargin int

	// RequestTimeout bounds one full pipeline run
	RequestTimeout time.Duration

	// DefaultCacheTTL applies when the request does not set one
	DefaultCacheTTL time.Duration

	// MaxK caps the requested result count
	MaxK int
}

// DefaultSearchConfig returns production defaults
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		RerankMargin:    5,
		RequestTimeout:  60 * time.Second,
		DefaultCacheTTL: time.Hour,
		MaxK:            100,
	}
}

// searchService implements the SearchService interface. Every dependency
// except providers, cache and embedder is optional: a nil reranker keeps
// the combined order, a nil factory keeps vectors in process, nil
// popularity and log stores simply skip those side effects.
type searchService struct {
	providers    []driven.Provider
	cache        driven.ResultCache
	embedder     driven.EmbeddingService
	indexFactory driven.VectorIndexFactory
	reranker     driven.Reranker
	popularity   driven.PopularityTracker
	searchLog    driven.SearchLogStore
	cfg          SearchConfig
	logger       *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(
	providers []driven.Provider,
	cache driven.ResultCache,
	embedder driven.EmbeddingService,
	indexFactory driven.VectorIndexFactory,
	reranker driven.Reranker,
	popularity driven.PopularityTracker,
	searchLog driven.SearchLogStore,
	cfg SearchConfig,
	logger *slog.Logger,
) driving.SearchService {
	if cfg.RerankMargin <= 0 {
		cfg.RerankMargin = DefaultSearchConfig().RerankMargin
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultSearchConfig().RequestTimeout
	}
	if cfg.DefaultCacheTTL <= 0 {
		cfg.DefaultCacheTTL = DefaultSearchConfig().DefaultCacheTTL
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = DefaultSearchConfig().MaxK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{
		providers:    providers,
		cache:        cache,
		embedder:     embedder,
		indexFactory: indexFactory,
		reranker:     reranker,
		popularity:   popularity,
		searchLog:    searchLog,
		cfg:          cfg,
		logger:       logger,
	}
}

// Search runs the full pipeline for one request
func (s *searchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.K > s.cfg.MaxK {
		req.K = s.cfg.MaxK
	}

	key := domain.NormalizeQuery(req.Query)
	s.touchPopularity(ctx, key)

	if items, hit := s.cacheLookup(ctx, key); hit {
		// The key ignores the filter, so a cached entry is re-filtered
		// for this request's constraints
		items = filterItems(items, req.Filter)
		result := &domain.SearchResult{
			Query:      req.Query,
			Mode:       req.Mode,
			Results:    items,
			TotalCount: len(items),
			Took:       time.Since(start),
		}
		s.record(ctx, req, len(items), true, result.Took)
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	docs := ingest.Documents(s.fanOut(ctx, req.Query))
	if len(docs) == 0 {
		result := &domain.SearchResult{
			Query:   req.Query,
			Mode:    req.Mode,
			Results: []domain.SearchItem{},
			Took:    time.Since(start),
		}
		s.record(ctx, req, 0, false, result.Took)
		return result, nil
	}

	hybrid := index.NewHybrid(s.embedder, s.indexFactory, s.logger)
	if err := hybrid.Build(ctx, docs); err != nil {
		return nil, err
	}
	defer hybrid.Discard(context.WithoutCancel(ctx))

	candidates, err := hybrid.Retrieve(ctx, req.RetrievalQuery(), req.K, req.Mode, s.cfg.RerankMargin)
	if err != nil {
		return nil, err
	}

	ranked := s.rerank(ctx, req, candidates)
	filtered := filter.Apply(ranked, req.Filter)
	items := toItems(filtered)

	s.cacheStore(ctx, key, items, req.CacheTTL)

	took := time.Since(start)
	s.record(ctx, req, len(items), false, took)

	return &domain.SearchResult{
		Query:      req.Query,
		Mode:       req.Mode,
		Results:    items,
		TotalCount: len(items),
		Took:       took,
	}, nil
}

// fanOut queries every provider concurrently and pools their documents.
// A provider failure is logged and its slot contributes nothing; the
// pipeline continues with whatever the others returned.
func (s *searchService) fanOut(ctx context.Context, query string) []domain.Document {
	results := make([][]domain.Document, len(s.providers))

	var wg sync.WaitGroup
	for i, provider := range s.providers {
		wg.Add(1)
		go func(i int, p driven.Provider) {
			defer wg.Done()
			docs, err := p.Run(ctx, query)
			if err != nil {
				s.logger.Warn("provider failed", "provider", p.Name(), "error", err)
				return
			}
			results[i] = docs
		}(i, provider)
	}
	wg.Wait()

	var pooled []domain.Document
	for _, docs := range results {
		pooled = append(pooled, docs...)
	}
	return pooled
}

// rerank applies the second-pass model and truncates to k. On failure
// the pre-rerank order is kept.
func (s *searchService) rerank(ctx context.Context, req domain.SearchRequest, candidates []domain.Document) []domain.Document {
	if s.reranker != nil && len(candidates) > 0 {
		ranked, err := s.reranker.Rerank(ctx, req.Mode, req.RetrievalQuery(), candidates, req.K)
		if err == nil {
			return ranked
		}
		s.logger.Warn("reranker failed, keeping combined order", "mode", req.Mode, "error", err)
	}
	if len(candidates) > req.K {
		candidates = candidates[:req.K]
	}
	return candidates
}

func (s *searchService) cacheLookup(ctx context.Context, key string) ([]domain.SearchItem, bool) {
	items, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed", "key", key, "error", err)
		return nil, false
	}
	return items, hit
}

// cacheStore writes non-empty result sets only; an empty set usually
// means an upstream hiccup and should not be pinned for the TTL.
func (s *searchService) cacheStore(ctx context.Context, key string, items []domain.SearchItem, ttlSeconds int) {
	if len(items) == 0 {
		return
	}
	ttl := s.cfg.DefaultCacheTTL
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	if err := s.cache.Set(ctx, key, items, ttl); err != nil {
		s.logger.Warn("cache store failed", "key", key, "error", err)
	}
}

func (s *searchService) touchPopularity(ctx context.Context, key string) {
	if s.popularity == nil {
		return
	}
	if err := s.popularity.Touch(ctx, key); err != nil {
		s.logger.Warn("popularity tracking failed", "key", key, "error", err)
	}
}

func (s *searchService) record(ctx context.Context, req domain.SearchRequest, count int, cacheHit bool, took time.Duration) {
	if s.searchLog == nil {
		return
	}
	entry := driven.SearchLogEntry{
		Query:       req.Query,
		Mode:        string(req.Mode),
		K:           req.K,
		ResultCount: count,
		CacheHit:    cacheHit,
		Took:        took,
	}
	if err := s.searchLog.Record(ctx, entry); err != nil {
		s.logger.Warn("search log write failed", "error", err)
	}
}

func toItems(docs []domain.Document) []domain.SearchItem {
	items := make([]domain.SearchItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, domain.SearchItem{Content: doc.Text, Metadata: doc.Metadata})
	}
	return items
}

func filterItems(items []domain.SearchItem, f *domain.ResultFilter) []domain.SearchItem {
	if f.Empty() {
		return items
	}
	docs := make([]domain.Document, 0, len(items))
	for _, item := range items {
		docs = append(docs, domain.Document{Text: item.Content, Metadata: item.Metadata})
	}
	return toItems(filter.Apply(docs, f))
}
