package turso

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxRetries = 5

// IsStreamError checks if an error is a remote libsql "stream not found"
// error, raised when the server has closed an idle Hrana stream.
func IsStreamError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "stream not found")
}

// IsBusyError checks if an error is SQLite reporting that another
// connection holds the lock beyond the busy timeout.
func IsBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// IsRetryable reports whether an error is transient.
func IsRetryable(err error) bool {
	return IsStreamError(err) || IsBusyError(err)
}

// WithRetry runs fn, retrying stream and busy errors with a short
// exponential backoff. Any other error is returned immediately.
func WithRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 200 * time.Millisecond

	return backoff.RetryWithData(func() (T, error) {
		result, err := fn()
		if err != nil && !IsRetryable(err) {
			return result, backoff.Permanent(err)
		}
		return result, err
	}, backoff.WithContext(backoff.WithMaxRetries(b, maxRetries), ctx))
}
