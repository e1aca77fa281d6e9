package index

import (
	"context"
	"testing"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
)

func TestLexical_RanksByTermFrequency(t *testing.T) {
	l := NewLexical(
		[]string{"a", "b", "c"},
		[]string{
			"laptop laptop laptop",
			"laptop sleeve bag",
			"phone case",
		},
	)

	hits := l.Search("laptop", 3)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "a" {
		t.Errorf("top hit = %q, want a", hits[0].ID)
	}
	if hits[1].ID != "b" {
		t.Errorf("second hit = %q, want b", hits[1].ID)
	}
}

func TestLexical_IgnoresStopWordsAndPunctuation(t *testing.T) {
	l := NewLexical(
		[]string{"a", "b"},
		[]string{"the best charger for the phone!", "unrelated text"},
	)

	hits := l.Search("The CHARGER, for a phone.", 5)
	if len(hits) != 1 || hits[0].ID != "a" {
		t.Fatalf("hits = %+v, want single hit a", hits)
	}
}

func TestLexical_NoMatchesReturnsEmpty(t *testing.T) {
	l := NewLexical([]string{"a"}, []string{"laptop"})
	if hits := l.Search("bicycle", 5); len(hits) != 0 {
		t.Errorf("expected no hits, got %+v", hits)
	}
	if hits := l.Search("the of and", 5); len(hits) != 0 {
		t.Errorf("stop-word-only query should match nothing, got %+v", hits)
	}
}

func TestMemoryIndex_CosineOrder(t *testing.T) {
	m := NewMemoryIndex()
	docs := []domain.Document{{ID: "x"}, {ID: "y"}, {ID: "z"}}
	embeddings := [][]float32{{1, 0}, {0.7, 0.7}, {0, 1}}
	if err := m.IndexBatch(context.Background(), docs, embeddings); err != nil {
		t.Fatalf("index: %v", err)
	}

	ids, scores, err := m.Search(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(ids) != 2 || ids[0] != "x" || ids[1] != "y" {
		t.Errorf("ids = %v, want [x y]", ids)
	}
	if scores[0] <= scores[1] {
		t.Errorf("scores not descending: %v", scores)
	}
}

func TestMemoryIndex_BatchLengthMismatch(t *testing.T) {
	m := NewMemoryIndex()
	err := m.IndexBatch(context.Background(), []domain.Document{{ID: "x"}}, nil)
	if err == nil {
		t.Fatal("expected error for mismatched batch")
	}
}
