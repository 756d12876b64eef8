package httputil

import (
	"context"
	"errors"
	"time"

	kerrors "github.com/matzehuels/kabelplan/pkg/errors"
)

// Longest wait a NetBox Retry-After header can impose between attempts.
const maxRetryAfter = 30 * time.Second

// RetryableError marks a failure worth another attempt: 5xx answers,
// throttling and transport errors.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable marks err for [Retry]. nil stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// IsRetryable reports whether any error in err's chain is a [RetryableError].
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Retry calls fn until it succeeds, fails with an unmarked error, or has
// been called attempts times. Waits start at delay and double; a throttled
// response waits for its Retry-After hint instead, capped at 30s.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	err := fn()
	for n := 1; n < attempts && IsRetryable(err); n++ {
		t := time.NewTimer(backoff(err, delay))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
		err = fn()
	}
	return err
}

// backoff is the wait before the next attempt after err.
func backoff(err error, delay time.Duration) time.Duration {
	var rl *kerrors.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return min(time.Duration(rl.RetryAfter)*time.Second, maxRetryAfter)
	}
	return delay
}
