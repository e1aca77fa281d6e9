// Package rerank talks to a cross-encoder scoring service over HTTP.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/core/domain"
	"github.com/custodia-labs/shopscout-core/internal/core/ports/driven"
)

// Ensure HTTPReranker implements Reranker
var _ driven.Reranker = (*HTTPReranker)(nil)

// modeModels maps each search mode to the cross-encoder it pays for:
// fast gets the smallest model, quality the heaviest.
var modeModels = map[domain.SearchMode]string{
	domain.SearchModeFast:     "cross-encoder/ms-marco-TinyBERT-L-2-v2",
	domain.SearchModeBalanced: "cross-encoder/ms-marco-MiniLM-L-12-v2",
	domain.SearchModeQuality:  "rank-T5-flan",
}

// HTTPReranker implements Reranker against a scoring service exposing a
// POST /rerank endpoint
type HTTPReranker struct {
	baseURL string
	client  *http.Client
}

// NewHTTPReranker creates a new HTTPReranker
func NewHTTPReranker(baseURL string, timeout time.Duration) (*HTTPReranker, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("reranker base URL is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPReranker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// rerankRequest is the request body for the scoring service
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

// rerankResponse carries scored document indexes, best first
type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	} `json:"results"`
	Error string `json:"error,omitempty"`
}

// Rerank scores candidates against the query with the mode's model and
// returns at most k documents in descending relevance order
func (r *HTTPReranker) Rerank(ctx context.Context, mode domain.SearchMode, query string, candidates []domain.Document, k int) ([]domain.Document, error) {
	if len(candidates) == 0 || k <= 0 {
		return []domain.Document{}, nil
	}

	model, ok := modeModels[mode]
	if !ok {
		return nil, fmt.Errorf("%w: no reranker model for mode %q", domain.ErrInvalidInput, mode)
	}

	texts := make([]string, len(candidates))
	for i, doc := range candidates {
		texts[i] = doc.Text
	}

	body, err := json.Marshal(rerankRequest{
		Model:     model,
		Query:     query,
		Documents: texts,
		TopN:      k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rerank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank service returned status %d", resp.StatusCode)
	}

	var parsed rerankResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse rerank response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("rerank service error: %s", parsed.Error)
	}

	ranked := make([]domain.Document, 0, k)
	for _, result := range parsed.Results {
		if result.Index < 0 || result.Index >= len(candidates) {
			return nil, fmt.Errorf("rerank service returned index %d out of range", result.Index)
		}
		ranked = append(ranked, candidates[result.Index])
		if len(ranked) == k {
			break
		}
	}
	return ranked, nil
}
