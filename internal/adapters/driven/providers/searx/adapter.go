// Package searx queries a SearxNG instance's JSON API as a web search
// provider.
package searx

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
	"github.com/custodia-labs/shopscout-core/internal/fetch"
	"github.com/sony/gobreaker"
)

// Ensure Adapter implements Provider
var _ driven.Provider = (*Adapter)(nil)

// Config holds searx adapter configuration
type Config struct {
	// BaseURL is the SearxNG instance root
	BaseURL string

	// MaxResults caps how many upstream results one query yields
	MaxResults int

	Logger *slog.Logger
}

// DefaultConfig returns production defaults
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		MaxResults: 30,
	}
}

// Adapter implements Provider against SearxNG. Calls go through a
// circuit breaker so a dead instance stops delaying searches;
// upstream failures yield an empty result set, never an error.
type Adapter struct {
	cfg     Config
	fetcher *fetch.Fetcher
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewAdapter creates a new searx Adapter
func NewAdapter(cfg Config, fetcher *fetch.Fetcher) (*Adapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("searx base URL is required")
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig("").MaxResults
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "searx",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Adapter{cfg: cfg, fetcher: fetcher, breaker: breaker, logger: logger}, nil
}

// Name identifies the provider in logs and metadata
func (a *Adapter) Name() string {
	return "searx"
}

// searxResult is one entry of the SearxNG JSON response
type searxResult struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Content  string  `json:"content"`
	Engine   string  `json:"engine"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

type searxResponse struct {
	Results []searxResult `json:"results"`
}

// Run queries the instance and converts results to documents. The query
// may carry !bang and :language modifiers, which are translated to API
// parameters and stripped before sending. Upstream failure returns an
// empty slice.
func (a *Adapter) Run(ctx context.Context, query string) ([]domain.Document, error) {
	parsed := parseModifiers(query)

	body, err := a.breaker.Execute(func() (any, error) {
		result, err := a.fetcher.FetchOne(ctx, a.searchURL(parsed))
		if err != nil {
			return nil, err
		}
		return result.Body, nil
	})
	if err != nil {
		a.logger.Warn("searx query failed", "query", parsed.Terms, "error", err)
		return []domain.Document{}, nil
	}

	var resp searxResponse
	if err := json.Unmarshal(body.([]byte), &resp); err != nil {
		a.logger.Warn("searx returned unparsable payload", "error", err)
		return []domain.Document{}, nil
	}

	results := resp.Results
	if len(results) > a.cfg.MaxResults {
		results = results[:a.cfg.MaxResults]
	}

	docs := make([]domain.Document, 0, len(results))
	for i, result := range results {
		text := strings.TrimSpace(result.Title + "\n" + result.Content)
		if text == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:   fmt.Sprintf("searx-%d", i),
			Text: text,
			Metadata: map[string]any{
				"name":     result.Title,
				"url":      result.URL,
				"source":   a.Name(),
				"engine":   result.Engine,
				"category": result.Category,
			},
		})
	}
	return docs, nil
}

func (a *Adapter) searchURL(q parsedQuery) string {
	params := url.Values{}
	params.Set("q", q.Terms)
	params.Set("format", "json")
	if len(q.Categories) > 0 {
		params.Set("categories", strings.Join(q.Categories, ","))
	}
	if len(q.Engines) > 0 {
		params.Set("engines", strings.Join(q.Engines, ","))
	}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	return a.cfg.BaseURL + "/search?" + params.Encode()
}

// knownCategories mirrors the instance's category tabs; a bang naming
// one selects the category, any other bang selects an engine.
var knownCategories = map[string]bool{
	"general": true, "images": true, "videos": true, "news": true,
	"map": true, "music": true, "it": true, "science": true,
	"files": true, "social+media": true,
}

// parsedQuery is a query with its modifiers split out
type parsedQuery struct {
	Terms      string
	Categories []string
	Engines    []string
	Language   string
}

// parseModifiers extracts !bang and :language tokens from a raw query.
// "!images !ddg :fr paris" becomes terms "paris" with category images,
// engine ddg and language fr.
func parseModifiers(query string) parsedQuery {
	var parsed parsedQuery
	var terms []string

	for _, token := range strings.Fields(query) {
		switch {
		case strings.HasPrefix(token, "!") && len(token) > 1:
			name := strings.ToLower(token[1:])
			if knownCategories[name] {
				parsed.Categories = append(parsed.Categories, name)
			} else {
				parsed.Engines = append(parsed.Engines, name)
			}
		case strings.HasPrefix(token, ":") && len(token) == 3:
			parsed.Language = strings.ToLower(token[1:])
		default:
			terms = append(terms, token)
		}
	}

	parsed.Terms = strings.Join(terms, " ")
	return parsed
}
