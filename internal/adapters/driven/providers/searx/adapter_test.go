package searx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/fetch"
	"github.com/custodia-labs/shopscout-core/internal/retry"
)

func testFetcher() *fetch.Fetcher {
	return fetch.NewFetcher(nil, fetch.Config{
		ConcurrencyLimit:  2,
		PerRequestTimeout: time.Second,
		Policy:            retry.Policy{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})
}

func TestParseModifiers(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  parsedQuery
	}{
		{
			name:  "plain query",
			query: "cheap laptops",
			want:  parsedQuery{Terms: "cheap laptops"},
		},
		{
			name:  "category bang",
			query: "!images sunset",
			want:  parsedQuery{Terms: "sunset", Categories: []string{"images"}},
		},
		{
			name:  "engine bang",
			query: "!ddg privacy",
			want:  parsedQuery{Terms: "privacy", Engines: []string{"ddg"}},
		},
		{
			name:  "language prefix",
			query: ":fr boulangerie paris",
			want:  parsedQuery{Terms: "boulangerie paris", Language: "fr"},
		},
		{
			name:  "everything at once",
			query: "!news !reuters :de inflation",
			want:  parsedQuery{Terms: "inflation", Categories: []string{"news"}, Engines: []string{"reuters"}, Language: "de"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseModifiers(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseModifiers(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestAdapter_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "json" {
			t.Errorf("format = %q", q.Get("format"))
		}
		if q.Get("q") != "rust book" {
			t.Errorf("q = %q, modifiers not stripped", q.Get("q"))
		}
		if q.Get("categories") != "it" {
			t.Errorf("categories = %q", q.Get("categories"))
		}

		_ = json.NewEncoder(w).Encode(searxResponse{Results: []searxResult{
			{Title: "The Rust Book", URL: "https://doc.rust-lang.org/book", Content: "Learn Rust", Engine: "ddg", Category: "it"},
			{Title: "", Content: ""},
			{Title: "Rust by Example", URL: "https://doc.rust-lang.org/rust-by-example", Content: "Examples", Engine: "brave", Category: "it"},
		}})
	}))
	defer server.Close()

	adapter, err := NewAdapter(DefaultConfig(server.URL), testFetcher())
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	docs, err := adapter.Run(context.Background(), "!it rust book")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// The empty result is skipped
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Metadata["url"] != "https://doc.rust-lang.org/book" {
		t.Errorf("url = %v", docs[0].Metadata["url"])
	}
	if docs[0].Metadata["source"] != "searx" {
		t.Errorf("source = %v", docs[0].Metadata["source"])
	}
}

func TestAdapter_UpstreamFailureYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter, err := NewAdapter(DefaultConfig(server.URL), testFetcher())
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	docs, err := adapter.Run(context.Background(), "anything")
	if err != nil {
		t.Fatalf("upstream failure must not error: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected empty documents, got %d", len(docs))
	}
}

func TestAdapter_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter, err := NewAdapter(DefaultConfig(server.URL), testFetcher())
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := adapter.Run(context.Background(), "q"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	// Breaker trips after 3 consecutive failures; later runs skip upstream
	if calls > 3 {
		t.Errorf("open breaker still reached upstream, %d calls", calls)
	}
}

func TestAdapter_MaxResultsCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		results := make([]searxResult, 10)
		for i := range results {
			results[i] = searxResult{Title: "result", Content: "content"}
		}
		_ = json.NewEncoder(w).Encode(searxResponse{Results: results})
	}))
	defer server.Close()

	cfg := DefaultConfig(server.URL)
	cfg.MaxResults = 4
	adapter, err := NewAdapter(cfg, testFetcher())
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}

	docs, err := adapter.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(docs) != 4 {
		t.Errorf("expected 4 documents, got %d", len(docs))
	}
}
