package index

import (
	"context"
	"errors"
	"testing"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
)

// stubEmbedder maps known texts to fixed vectors so similarity order is
// predictable in tests.
type stubEmbedder struct {
	vectors map[string][]float32
	fail    bool
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, errors.New("embedding service down")
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := s.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *stubEmbedder) Dimensions() int { return 3 }
func (s *stubEmbedder) Model() string   { return "stub" }

type failingFactory struct{}

func (failingFactory) New(context.Context) (driven.VectorIndex, error) {
	return nil, errors.New("backend unreachable")
}

func testDocs() []domain.Document {
	return []domain.Document{
		{ID: "laptop", Text: "lenovo laptop computer"},
		{ID: "phone", Text: "samsung phone android"},
		{ID: "charger", Text: "usb charger for laptop and phone"},
	}
}

func testEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{
		"lenovo laptop computer":           {1, 0, 0},
		"samsung phone android":            {0, 1, 0},
		"usb charger for laptop and phone": {0.5, 0.5, 0},
		"laptop":                           {0.9, 0.1, 0},
		"phone":                            {0.1, 0.9, 0},
	}}
}

func TestHybrid_FastModeUsesSemanticOnly(t *testing.T) {
	h := NewHybrid(testEmbedder(), nil, nil)
	if err := h.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("build: %v", err)
	}
	defer h.Discard(context.Background())

	docs, err := h.Retrieve(context.Background(), "laptop", 2, domain.SearchModeFast, 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "laptop" {
		t.Errorf("top document = %q, want laptop", docs[0].ID)
	}
}

func TestHybrid_BalancedModeFusesAndDeduplicates(t *testing.T) {
	h := NewHybrid(testEmbedder(), nil, nil)
	if err := h.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("build: %v", err)
	}
	defer h.Discard(context.Background())

	docs, err := h.Retrieve(context.Background(), "laptop", 3, domain.SearchModeBalanced, 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}

	seen := make(map[string]int)
	for _, doc := range docs {
		seen[doc.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("document %q appears %d times after fusion", id, n)
		}
	}
	// "laptop" leads both rankings so it must lead the fused list
	if docs[0].ID != "laptop" {
		t.Errorf("top document = %q, want laptop", docs[0].ID)
	}
}

func TestHybrid_QualityModeWidensPool(t *testing.T) {
	h := NewHybrid(testEmbedder(), nil, nil)
	if err := h.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("build: %v", err)
	}
	defer h.Discard(context.Background())

	docs, err := h.Retrieve(context.Background(), "laptop", 1, domain.SearchModeQuality, 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	// k=1 with margin 5 should surface more than one candidate for the
	// reranker to choose from
	if len(docs) < 2 {
		t.Errorf("expected widened candidate pool, got %d documents", len(docs))
	}
}

func TestHybrid_FallsBackWhenBackendUnreachable(t *testing.T) {
	h := NewHybrid(testEmbedder(), failingFactory{}, nil)
	if err := h.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("build must not surface backend errors: %v", err)
	}
	defer h.Discard(context.Background())

	docs, err := h.Retrieve(context.Background(), "phone", 1, domain.SearchModeFast, 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "phone" {
		t.Errorf("fallback search returned %+v, want phone", docs)
	}
}

func TestHybrid_DegradesToLexicalWhenEmbeddingFails(t *testing.T) {
	embedder := testEmbedder()
	embedder.fail = true

	h := NewHybrid(embedder, nil, nil)
	if err := h.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("build must not surface embedding errors: %v", err)
	}
	defer h.Discard(context.Background())

	docs, err := h.Retrieve(context.Background(), "samsung android", 1, domain.SearchModeBalanced, 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "phone" {
		t.Errorf("lexical fallback returned %+v, want phone", docs)
	}
}

func TestHybrid_Lifecycle(t *testing.T) {
	h := NewHybrid(testEmbedder(), nil, nil)
	if h.State() != StateEmpty {
		t.Fatalf("new index state = %d", h.State())
	}

	if _, err := h.Retrieve(context.Background(), "q", 1, domain.SearchModeFast, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("retrieve before build should fail with invalid input, got %v", err)
	}

	if err := h.Build(context.Background(), testDocs()); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := h.Build(context.Background(), testDocs()); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("second build should fail with invalid input, got %v", err)
	}

	if _, err := h.Retrieve(context.Background(), "laptop", 1, domain.SearchModeFast, 0); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if h.State() != StateQueried {
		t.Errorf("state after retrieve = %d, want queried", h.State())
	}

	h.Discard(context.Background())
	if h.State() != StateDiscarded {
		t.Errorf("state after discard = %d", h.State())
	}
	if _, err := h.Retrieve(context.Background(), "laptop", 1, domain.SearchModeFast, 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("retrieve after discard should fail, got %v", err)
	}
}

func TestFuse_TieBreaksBySemanticRank(t *testing.T) {
	// Swapped ranks across the two lists give exactly equal fused
	// scores: each id collects one first-rank and one second-rank
	// contribution.
	semantic := []Scored{{ID: "a", Score: 0.9}, {ID: "b", Score: 0.8}}
	lexical := []Scored{{ID: "b", Score: 3}, {ID: "a", Score: 2}}

	fused := fuse(semantic, lexical, 2)
	if len(fused) != 2 {
		t.Fatalf("expected 2 fused hits, got %d", len(fused))
	}
	if fused[0].Score != fused[1].Score {
		t.Fatalf("expected tied fused scores, got %v and %v", fused[0].Score, fused[1].Score)
	}
	if fused[0].ID != "a" || fused[1].ID != "b" {
		t.Errorf("tie resolved to [%s %s], want semantic order [a b]", fused[0].ID, fused[1].ID)
	}
}

func TestHybrid_EmptyCorpus(t *testing.T) {
	h := NewHybrid(testEmbedder(), nil, nil)
	if err := h.Build(context.Background(), nil); err != nil {
		t.Fatalf("build: %v", err)
	}
	docs, err := h.Retrieve(context.Background(), "anything", 5, domain.SearchModeBalanced, 5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected no documents, got %d", len(docs))
	}
}
