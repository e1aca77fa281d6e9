package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SearchMode selects a point on the latency/quality tradeoff curve
type SearchMode string

const (
	SearchModeFast     SearchMode = "fast"     // semantic retrieval only, light reranker
	SearchModeBalanced SearchMode = "balanced" // hybrid retrieval, medium reranker
	SearchModeQuality  SearchMode = "quality"  // hybrid retrieval with wider candidate set, heavy reranker
)

// Valid reports whether the mode is one of the three supported modes.
// Anything else is a request error, never a silent fallback.
func (m SearchMode) Valid() bool {
	switch m {
	case SearchModeFast, SearchModeBalanced, SearchModeQuality:
		return true
	}
	return false
}

// SearchRequest configures a search
type SearchRequest struct {
	// Query is sent to the provider upstreams
	Query string `json:"query"`

	// Refinement optionally narrows retrieval over the fetched documents.
	// Empty means Query is used for retrieval as well.
	Refinement string `json:"refinement,omitempty"`

	Mode SearchMode `json:"mode"`
	K    int        `json:"k"`

	Filter *ResultFilter `json:"filter,omitempty"`

	// CacheTTL is how long the result may be served from cache, in seconds
	CacheTTL int `json:"cache_ttl,omitempty"`
}

// Validate rejects invalid requests before any I/O happens.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, r.Mode)
	}
	if r.K < 1 {
		return fmt.Errorf("%w: k must be >= 1, got %d", ErrInvalidInput, r.K)
	}
	return nil
}

// RetrievalQuery returns the query used against the hybrid index.
func (r *SearchRequest) RetrievalQuery() string {
	if strings.TrimSpace(r.Refinement) != "" {
		return r.Refinement
	}
	return r.Query
}

// ResultFilter is a structured post-ranking filter.
// Filtering removes items; it never reorders them.
type ResultFilter struct {
	PriceMin *float64 `json:"price_min,omitempty"`
	PriceMax *float64 `json:"price_max,omitempty"`

	// Features lists required features; an item passes when its feature
	// set is a superset of this list.
	Features []string `json:"features,omitempty"`

	// Category matches case-insensitively as a substring.
	Category string `json:"category,omitempty"`
}

// Empty reports whether the filter imposes no criteria.
func (f *ResultFilter) Empty() bool {
	return f == nil ||
		(f.PriceMin == nil && f.PriceMax == nil && len(f.Features) == 0 && f.Category == "")
}

// SearchItem is one ranked result. Index 0 in a result slice is the most
// relevant item; callers rely on this ordering.
type SearchItem struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// SearchResult is the outcome of a search
type SearchResult struct {
	Query      string        `json:"query"`
	Mode       SearchMode    `json:"mode"`
	Results    []SearchItem  `json:"results"`
	TotalCount int           `json:"total_count"`
	Took       time.Duration `json:"-"`
}

// MarshalJSON reports elapsed time as milliseconds instead of the raw
// nanosecond count a time.Duration would serialize to.
func (r SearchResult) MarshalJSON() ([]byte, error) {
	type alias SearchResult
	return json.Marshal(struct {
		alias
		TookMS int64 `json:"took_ms"`
	}{
		alias:  alias(r),
		TookMS: r.Took.Milliseconds(),
	})
}

// NormalizeQuery produces the cache key form of a query: lowercased with
// whitespace runs collapsed to single spaces.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
