package summary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"
)

// RetryPolicy bounds how long a provider may take.
type RetryPolicy struct {
	// Timeout applies to each attempt. Zero means no per-attempt deadline.
	Timeout time.Duration

	// MaxRetries is the number of attempts after the first.
	MaxRetries int

	// InitialBackoff doubles after every failed attempt, capped at MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy returns a 60s timeout with three retries starting at 1s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Timeout:        60 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     8 * time.Second,
	}
}

// backoff returns the wait before the given retry (1-based).
func (p RetryPolicy) backoff(retry int) time.Duration {
	d := time.Duration(math.Pow(2, float64(retry-1))) * p.InitialBackoff
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

type retryingProvider struct {
	Provider
	policy RetryPolicy
	after  func(time.Duration) <-chan time.Time
}

// WithRetry wraps p so transient failures and per-attempt timeouts are
// retried with exponential backoff. Other errors are returned immediately.
func WithRetry(p Provider, policy RetryPolicy) Provider {
	return &retryingProvider{Provider: p, policy: policy, after: time.After}
}

func (r *retryingProvider) Summarize(ctx context.Context, source string) (string, error) {
	attempts := r.policy.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			wait := r.policy.backoff(attempt)
			log.Printf("Retrying %s in %v (attempt %d/%d): %v", r.Name(), wait, attempt+1, attempts, lastErr)

			select {
			case <-r.after(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		summary, err := r.attempt(ctx, source)
		if err == nil {
			return summary, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !retryable(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("summary failed after %d attempts: %w", attempts, lastErr)
}

func (r *retryingProvider) attempt(ctx context.Context, source string) (string, error) {
	if r.policy.Timeout <= 0 {
		return r.Provider.Summarize(ctx, source)
	}
	actx, cancel := context.WithTimeout(ctx, r.policy.Timeout)
	defer cancel()

	summary, err := r.Provider.Summarize(actx, source)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("request timed out after %v: %w", r.policy.Timeout, ErrTransient)
	}
	return summary, err
}

func retryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
