package generic

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// =============================================================================
// RETRY POLICY - Timeout + bounded exponential backoff for source calls
// =============================================================================

// RetryPolicy bounds calls to an external source.
type RetryPolicy struct {
	Attempts   int           // total tries, at least 1
	Timeout    time.Duration // per attempt; 0 disables
	Backoff    time.Duration // wait before the second try, doubled afterwards
	MaxBackoff time.Duration // 0 means no cap
}

// DefaultRetryPolicy is used when a zero policy is supplied.
var DefaultRetryPolicy = RetryPolicy{
	Attempts:   3,
	Timeout:    10 * time.Second,
	Backoff:    200 * time.Millisecond,
	MaxBackoff: 2 * time.Second,
}

// Retry calls fn until it succeeds, fails with a non-retryable error, the
// attempts are exhausted or ctx is done. A per-attempt timeout counts as a
// source failure and is retried. It returns the number of attempts made.
func Retry[T any](ctx context.Context, p RetryPolicy, logger *slog.Logger, fn func(context.Context) (T, error)) (T, int, error) {
	if p.Attempts < 1 {
		p = DefaultRetryPolicy
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		zero  T
		err   error
		delay = p.Backoff
	)
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		var v T
		v, err = callWithTimeout(ctx, p.Timeout, fn)
		if err == nil {
			return v, attempt, nil
		}
		if ctx.Err() != nil {
			return zero, attempt, ctx.Err()
		}
		if !IsRetryable(err) {
			return zero, attempt, err
		}
		if attempt == p.Attempts {
			return zero, attempt, err
		}

		logger.Warn("source call failed, retrying",
			"attempt", attempt, "max_attempts", p.Attempts, "backoff", delay, "error", err)
		select {
		case <-ctx.Done():
			return zero, attempt, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if p.MaxBackoff > 0 && delay > p.MaxBackoff {
			delay = p.MaxBackoff
		}
	}
	return zero, p.Attempts, err
}

func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	v, err := fn(attemptCtx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return v, errors.Join(ErrRefreshSourceUnavailable, err)
	}
	return v, err
}
