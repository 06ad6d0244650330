package apiclient

import (
	"context"
	"time"
)

// RetryPolicy decides whether a failed call is worth repeating. The client
// never retries on its own; consumers (page loaders, background refreshers)
// opt in through Retry.
type RetryPolicy struct {
	// MaxAttempts counts the first call; values below 1 mean one attempt.
	MaxAttempts int
	// Overrides forces the decision for specific statuses, e.g. {429: true}.
	Overrides map[int]bool
}

// DefaultRetryPolicy allows three attempts with the default classification.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3}
}

// ShouldRetry reports whether attempt (1-based) may be followed by another.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.maxAttempts() {
		return false
	}
	resp, ok := AsErrorResponse(err)
	if !ok {
		return false
	}
	if forced, ok := p.Overrides[resp.Status]; ok {
		return forced
	}
	return resp.Retryable()
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Backoff returns the wait before the given retry (1-based).
type Backoff func(retry int) time.Duration

// ExponentialBackoff doubles base on every retry, capped at max. A max of
// zero or less leaves the wait uncapped.
func ExponentialBackoff(base, max time.Duration) Backoff {
	return func(retry int) time.Duration {
		if retry < 1 {
			retry = 1
		}
		wait := base
		for i := 1; i < retry && (max <= 0 || wait < max); i++ {
			wait *= 2
		}
		if max > 0 && wait > max {
			return max
		}
		return wait
	}
}

// Retry runs fn until it succeeds, the policy gives up or ctx is done. The
// last error is returned.
func Retry[T any](ctx context.Context, policy RetryPolicy, backoff Backoff, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !policy.ShouldRetry(err, attempt) {
			return zero, err
		}
		if backoff != nil {
			timer := time.NewTimer(backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, err
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return zero, err
		}
	}
}
