package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/custodia-labs/shopscout-core/internal/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		RetryIf:      Retryable,
	}
}

func TestFetcher_OrderMatchesInput(t *testing.T) {
	// Later URLs respond faster than earlier ones to exercise reassembly
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/slow") {
			time.Sleep(30 * time.Millisecond)
		}
		fmt.Fprint(w, r.URL.Path)
	}))
	defer server.Close()

	urls := []string{
		server.URL + "/0/slow",
		server.URL + "/1",
		server.URL + "/2/slow",
		server.URL + "/3",
	}

	f := NewFetcher(nil, Config{ConcurrencyLimit: 4, PerRequestTimeout: time.Second, Policy: testPolicy()})
	results := f.Fetch(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, res := range results {
		if res == nil {
			t.Fatalf("position %d: unexpected nil result", i)
		}
		want := strings.TrimPrefix(urls[i], server.URL)
		if string(res.Body) != want {
			t.Errorf("position %d: got body %q, want %q", i, res.Body, want)
		}
	}
}

func TestFetcher_FailedURLYieldsNilAtPosition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	urls := []string{server.URL + "/a", server.URL + "/broken", server.URL + "/b"}

	f := NewFetcher(nil, Config{ConcurrencyLimit: 3, PerRequestTimeout: time.Second, Policy: testPolicy()})
	results := f.Fetch(context.Background(), urls)

	if results[0] == nil || results[2] == nil {
		t.Fatal("successful fetches should not be nil")
	}
	if results[1] != nil {
		t.Errorf("exhausted URL should yield nil, got %+v", results[1])
	}
}

func TestFetcher_NeverExceedsConcurrencyLimit(t *testing.T) {
	const limit = 3

	var inFlight, peak int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt64(&inFlight, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if current <= old || atomic.CompareAndSwapInt64(&peak, old, current) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	urls := make([]string, 12)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/%d", server.URL, i)
	}

	f := NewFetcher(nil, Config{ConcurrencyLimit: limit, PerRequestTimeout: time.Second, Policy: testPolicy()})
	f.Fetch(context.Background(), urls)

	if got := atomic.LoadInt64(&peak); got > limit {
		t.Errorf("peak in-flight requests %d exceeded limit %d", got, limit)
	}
}

func TestFetcher_RetriesServerErrors(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer server.Close()

	f := NewFetcher(nil, Config{ConcurrencyLimit: 1, PerRequestTimeout: time.Second, Policy: testPolicy()})
	res, err := f.FetchOne(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Body) != "recovered" {
		t.Errorf("expected recovered body, got %q", res.Body)
	}
	if atomic.LoadInt64(&calls) != 2 {
		t.Errorf("expected 2 upstream calls, got %d", calls)
	}
}

func TestFetcher_DoesNotRetryClientErrors(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(nil, Config{ConcurrencyLimit: 1, PerRequestTimeout: time.Second, Policy: testPolicy()})
	_, err := f.FetchOne(context.Background(), server.URL)
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if atomic.LoadInt64(&calls) != 1 {
		t.Errorf("client errors must not be retried, got %d calls", calls)
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(&StatusError{Status: 503}) != true {
		t.Error("503 should be retryable")
	}
	if Retryable(&StatusError{Status: 429}) != true {
		t.Error("429 should be retryable")
	}
	if Retryable(&StatusError{Status: 404}) != false {
		t.Error("404 should not be retryable")
	}
	if Retryable(fmt.Errorf("wrap: %w", context.Canceled)) != false {
		t.Error("cancellation should not be retryable")
	}
}
