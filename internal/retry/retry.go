// Package retry wraps fallible operations with bounded retries and
// exponential backoff.
package retry

import (
	"context"
	"time"
)

// Policy configures retry behavior for an operation.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the sleep before the second attempt. It doubles
	// after every retry, capped at MaxDelay.
	InitialDelay time.Duration

	// MaxDelay caps the per-step backoff delay.
	MaxDelay time.Duration

	// RetryIf classifies errors. A nil RetryIf retries every error.
	// Non-retryable errors propagate immediately without delay.
	RetryIf func(error) bool

	// OnRetry is invoked with the error and the attempt number (1-based)
	// before each retry sleep. Telemetry only; it must not and cannot
	// alter control flow.
	OnRetry func(err error, attempt int)
}

// DefaultPolicy returns the policy used for provider and page fetches.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = p.InitialDelay
	}
	return p
}

// Do runs fn under the policy. The final attempt's error is surfaced to
// the caller, not swallowed. Context cancellation aborts the backoff
// sleep and returns the context error.
func Do[T any](ctx context.Context, policy Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	p := policy.normalized()

	delay := p.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if p.RetryIf != nil && !p.RetryIf(err) {
			return zero, err
		}
		if attempt == p.MaxAttempts {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(err, attempt)
		}

		sleep := delay
		if sleep > p.MaxDelay {
			sleep = p.MaxDelay
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}

	return zero, lastErr
}
