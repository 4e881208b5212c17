package summary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for WithRetry:
// - Success on the first attempt makes one call
// - Transient failures are retried until success
// - Retries stop after MaxRetries and the last error is wrapped
// - Permanent failures are not retried
// - Backoff doubles and is capped
// - A slow attempt times out and counts as transient
// - Parent cancellation during backoff returns immediately

// scriptedProvider returns errs in order, then "ok".
type scriptedProvider struct {
	mu    sync.Mutex
	errs  []error
	calls int
	delay time.Duration
}

func (s *scriptedProvider) Summarize(ctx context.Context, source string) (string, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if i < len(s.errs) {
		return "", s.errs[i]
	}
	return "ok", nil
}

func (s *scriptedProvider) Name() string { return "scripted" }
func (s *scriptedProvider) Close() error { return nil }

// instantRetry wraps p with a policy whose waits are recorded, not slept.
func instantRetry(p Provider, policy RetryPolicy) (*retryingProvider, *[]time.Duration) {
	var waits []time.Duration
	r := WithRetry(p, policy).(*retryingProvider)
	r.after = func(d time.Duration) <-chan time.Time {
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return r, &waits
}

var transient = fmt.Errorf("503: %w", ErrTransient)

func TestRetry_FirstAttemptSucceeds(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{}
	r, waits := instantRetry(p, DefaultRetryPolicy())

	summary, err := r.Summarize(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", summary)
	assert.Equal(t, 1, p.calls)
	assert.Empty(t, *waits)
}

func TestRetry_RecoversFromTransient(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{errs: []error{transient, transient}}
	r, waits := instantRetry(p, DefaultRetryPolicy())

	summary, err := r.Summarize(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", summary)
	assert.Equal(t, 3, p.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestRetry_GivesUp(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{errs: []error{transient, transient, transient, transient, transient}}
	r, waits := instantRetry(p, RetryPolicy{MaxRetries: 3, InitialBackoff: time.Second, MaxBackoff: 3 * time.Second})

	_, err := r.Summarize(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Contains(t, err.Error(), "after 4 attempts")
	assert.Equal(t, 4, p.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, *waits)
}

func TestRetry_PermanentErrorNotRetried(t *testing.T) {
	t.Parallel()

	permanent := errors.New("400 bad request")
	p := &scriptedProvider{errs: []error{permanent}}
	r, _ := instantRetry(p, DefaultRetryPolicy())

	_, err := r.Summarize(context.Background(), "x")
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, p.calls)
}

func TestRetry_AttemptTimeout(t *testing.T) {
	t.Parallel()

	p := &scriptedProvider{delay: time.Second}
	r, _ := instantRetry(p, RetryPolicy{Timeout: 10 * time.Millisecond, MaxRetries: 1})

	_, err := r.Summarize(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransient)
	assert.Equal(t, 2, p.calls)
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := &scriptedProvider{errs: []error{transient}}
	r := WithRetry(p, RetryPolicy{MaxRetries: 3, InitialBackoff: time.Hour}).(*retryingProvider)
	r.after = func(d time.Duration) <-chan time.Time {
		cancel()
		return make(chan time.Time)
	}

	_, err := r.Summarize(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, p.calls)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 500 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, p.backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.backoff(2))
	assert.Equal(t, 400*time.Millisecond, p.backoff(3))
	assert.Equal(t, 500*time.Millisecond, p.backoff(4))
}
