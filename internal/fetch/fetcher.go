// Package fetch provides the bounded-concurrency HTTP fetch substrate
// used by every provider adapter.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/shopscout-core/internal/retry"
)

// Result is the outcome of fetching a single URL
type Result struct {
	URL    string
	Status int
	Body   []byte
}

// Config holds fetcher configuration
type Config struct {
	// ConcurrencyLimit bounds in-flight requests across one Fetch call
	ConcurrencyLimit int

	// PerRequestTimeout bounds every individual fetch. Mandatory: a zero
	// value is replaced by the default, never by "no timeout".
	PerRequestTimeout time.Duration

	// Policy wraps each fetch with retries
	Policy retry.Policy

	// UserAgent is sent with every request when non-empty
	UserAgent string

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	policy := retry.DefaultPolicy()
	policy.RetryIf = Retryable
	return Config{
		ConcurrencyLimit:  8,
		PerRequestTimeout: 15 * time.Second,
		Policy:            policy,
	}
}

// Fetcher fetches batches of URLs with a concurrency ceiling enforced by
// a counting semaphore. No other component issues unbounded concurrent
// I/O.
type Fetcher struct {
	client    *http.Client
	limit     int64
	timeout   time.Duration
	policy    retry.Policy
	userAgent string
	logger    *slog.Logger
}

// NewFetcher creates a fetcher. A nil client uses http.DefaultClient's
// transport with no client-level timeout; timeouts are enforced per
// request via context.
func NewFetcher(client *http.Client, cfg Config) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	limit := cfg.ConcurrencyLimit
	if limit <= 0 {
		limit = DefaultConfig().ConcurrencyLimit
	}

	timeout := cfg.PerRequestTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().PerRequestTimeout
	}

	policy := cfg.Policy
	if policy.MaxAttempts == 0 {
		policy = DefaultConfig().Policy
	}

	return &Fetcher{
		client:    client,
		limit:     int64(limit),
		timeout:   timeout,
		policy:    policy,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Fetch retrieves every URL concurrently, bounded by the concurrency
// limit. The output slice matches the input order regardless of
// completion order; a URL that exhausts its retries yields nil at its
// position rather than aborting the batch.
func (f *Fetcher) Fetch(ctx context.Context, urls []string) []*Result {
	results := make([]*Result, len(urls))
	sem := semaphore.NewWeighted(f.limit)

	var wg sync.WaitGroup
	for i, url := range urls {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled: remaining positions stay nil
			break
		}

		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := retry.Do(ctx, f.policy, func(ctx context.Context) (*Result, error) {
				return f.fetchOne(ctx, url)
			})
			if err != nil {
				f.logger.Warn("fetch failed", "url", url, "error", err)
				return
			}
			results[i] = result
		}(i, url)
	}

	wg.Wait()
	return results
}

// FetchOne retrieves a single URL with retry and timeout.
func (f *Fetcher) FetchOne(ctx context.Context, url string) (*Result, error) {
	return retry.Do(ctx, f.policy, func(ctx context.Context) (*Result, error) {
		return f.fetchOne(ctx, url)
	})
}

func (f *Fetcher) fetchOne(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	return &Result{URL: url, Status: resp.StatusCode, Body: body}, nil
}

// StatusError reports a non-success HTTP status
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

// Retryable reports whether a fetch error is worth retrying: network
// errors, timeouts and server-side statuses are, client errors are not.
func Retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500 || statusErr.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Transport-level failures (connection refused, reset, DNS) and
	// per-request deadline hits are all worth another attempt.
	return true
}
