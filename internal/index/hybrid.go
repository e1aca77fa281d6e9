// Package index builds the per-request retrieval indexes. Every search
// request gets a fresh hybrid index over the documents fetched for it;
// nothing in this package outlives the request.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
)

// State tracks the hybrid index lifecycle
type State int

const (
	StateEmpty State = iota
	StateIngesting
	StateBuilt
	StateQueried
	StateDiscarded
)

// Rank fusion weights. Both retrievers contribute equally; the constant
// dampens the influence of absolute rank positions.
const (
	fusionConst    = 60
	semanticWeight = 0.5
	lexicalWeight  = 0.5
)

// Hybrid pairs a semantic vector index with a lexical keyword index over
// the same documents. The vector side prefers a remote backend created
// through the factory and degrades to an in-process index when the
// backend is unavailable; callers cannot observe which one served them.
type Hybrid struct {
	embedder driven.EmbeddingService
	factory  driven.VectorIndexFactory
	logger   *slog.Logger

	state    State
	byID     map[string]domain.Document
	lexical  *Lexical
	local    *MemoryIndex
	remote   driven.VectorIndex
	semantic bool
}

// NewHybrid creates an empty hybrid index. factory may be nil, in which
// case the in-process vector index is used directly.
func NewHybrid(embedder driven.EmbeddingService, factory driven.VectorIndexFactory, logger *slog.Logger) *Hybrid {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hybrid{
		embedder: embedder,
		factory:  factory,
		logger:   logger,
		byID:     make(map[string]domain.Document),
		local:    NewMemoryIndex(),
	}
}

// Build ingests documents into both indexes. It can be called once per
// index. Embedding or backend failures degrade the semantic side and are
// logged, never surfaced; the lexical side always builds.
func (h *Hybrid) Build(ctx context.Context, docs []domain.Document) error {
	if h.state != StateEmpty {
		return fmt.Errorf("%w: index already built", domain.ErrInvalidInput)
	}
	h.state = StateIngesting

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		texts[i] = doc.Text
		h.byID[doc.ID] = doc
	}
	h.lexical = NewLexical(ids, texts)

	if len(docs) == 0 {
		h.state = StateBuilt
		return nil
	}

	embeddings, err := h.embedder.Embed(ctx, texts)
	if err != nil || len(embeddings) != len(docs) {
		h.logger.Warn("embedding failed, semantic retrieval disabled for this request", "error", err)
		h.state = StateBuilt
		return nil
	}
	h.semantic = true

	if err := h.local.IndexBatch(ctx, docs, embeddings); err != nil {
		return fmt.Errorf("indexing documents locally: %w", err)
	}

	if h.factory != nil {
		remote, err := h.factory.New(ctx)
		if err != nil {
			h.logger.Warn("vector backend unavailable, using in-process index", "error", err)
		} else if err := remote.IndexBatch(ctx, docs, embeddings); err != nil {
			h.logger.Warn("vector backend rejected batch, using in-process index", "error", err)
		} else {
			h.remote = remote
		}
	}

	h.state = StateBuilt
	return nil
}

// Retrieve returns the top documents for the query. Fast mode uses
// semantic ranking only; balanced and quality fuse semantic and lexical
// ranks. Quality mode widens the pool by margin extra candidates for a
// downstream reranker to narrow. Ties keep semantic rank order.
func (h *Hybrid) Retrieve(ctx context.Context, query string, k int, mode domain.SearchMode, margin int) ([]domain.Document, error) {
	if h.state != StateBuilt && h.state != StateQueried {
		return nil, fmt.Errorf("%w: index not built", domain.ErrInvalidInput)
	}
	h.state = StateQueried

	if k <= 0 || len(h.byID) == 0 {
		return []domain.Document{}, nil
	}

	wantK := k
	if mode == domain.SearchModeQuality && margin > 0 {
		wantK = k + margin
	}

	semHits := h.semanticSearch(ctx, query, wantK)
	if mode == domain.SearchModeFast && h.semantic {
		return h.documents(semHits), nil
	}

	lexHits := h.lexical.Search(query, wantK)
	if !h.semantic {
		// Degraded: lexical carries the whole request
		return h.documents(truncate(lexHits, wantK)), nil
	}

	return h.documents(fuse(semHits, lexHits, wantK)), nil
}

// Discard drops both indexes and ends the lifecycle. Safe to call after
// a failed Build.
func (h *Hybrid) Discard(ctx context.Context) {
	if h.state == StateDiscarded {
		return
	}
	if h.remote != nil {
		if err := h.remote.Drop(ctx); err != nil {
			h.logger.Warn("dropping remote vector index", "error", err)
		}
	}
	_ = h.local.Drop(ctx)
	h.state = StateDiscarded
}

// State returns the current lifecycle state
func (h *Hybrid) State() State {
	return h.state
}

// semanticSearch embeds the query and searches the preferred vector
// index, falling back to the in-process copy on remote failure.
func (h *Hybrid) semanticSearch(ctx context.Context, query string, k int) []Scored {
	if !h.semantic {
		return nil
	}

	embedding, err := h.embedder.EmbedQuery(ctx, query)
	if err != nil {
		h.logger.Warn("query embedding failed", "error", err)
		return nil
	}

	if h.remote != nil {
		ids, scores, err := h.remote.Search(ctx, embedding, k)
		if err == nil {
			return zip(ids, scores)
		}
		h.logger.Warn("remote vector search failed, using in-process index", "error", err)
	}

	ids, scores, err := h.local.Search(ctx, embedding, k)
	if err != nil {
		h.logger.Warn("in-process vector search failed", "error", err)
		return nil
	}
	return zip(ids, scores)
}

// fuse combines two ranked lists with weighted reciprocal rank fusion.
// Documents present in both lists accumulate both contributions, which
// also deduplicates them. Candidates are seeded in semantic order before
// the stable sort, so equal fused scores resolve by semantic rank.
func fuse(semantic, lexical []Scored, limit int) []Scored {
	scores := make(map[string]float64, len(semantic)+len(lexical))
	order := make([]string, 0, len(semantic)+len(lexical))
	seen := make(map[string]bool, len(semantic)+len(lexical))

	for rank, hit := range semantic {
		scores[hit.ID] += semanticWeight / float64(fusionConst+rank+1)
		if !seen[hit.ID] {
			seen[hit.ID] = true
			order = append(order, hit.ID)
		}
	}
	for rank, hit := range lexical {
		scores[hit.ID] += lexicalWeight / float64(fusionConst+rank+1)
		if !seen[hit.ID] {
			seen[hit.ID] = true
			order = append(order, hit.ID)
		}
	}

	fused := make([]Scored, 0, len(order))
	for _, id := range order {
		fused = append(fused, Scored{ID: id, Score: scores[id]})
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})

	return truncate(fused, limit)
}

func (h *Hybrid) documents(hits []Scored) []domain.Document {
	docs := make([]domain.Document, 0, len(hits))
	for _, hit := range hits {
		if doc, ok := h.byID[hit.ID]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

func zip(ids []string, scores []float64) []Scored {
	hits := make([]Scored, 0, len(ids))
	for i, id := range ids {
		score := 0.0
		if i < len(scores) {
			score = scores[i]
		}
		hits = append(hits, Scored{ID: id, Score: score})
	}
	return hits
}

func truncate(hits []Scored, limit int) []Scored {
	if len(hits) > limit {
		return hits[:limit]
	}
	return hits
}
