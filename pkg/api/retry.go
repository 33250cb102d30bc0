package api

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
)

// RetryableError marks a failure worth another attempt: transport errors
// and 5xx responses.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

func isRetryable(err error) bool {
	return errors.As(err, new(*RetryableError))
}

// Retry runs fn up to attempts times with exponential backoff starting at
// delay. Only a RetryableError is retried; any other error, or a cancelled
// ctx, ends the loop and is returned as is.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(uint(max(attempts, 1))),
		retry.Delay(delay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Debug("retrying backend call", "attempt", n+1, "error", err)
		}),
	)
}
