package provider

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultMaxAttempts = 3
	baseBackoff        = 500 * time.Millisecond
)

// withRetry runs fn up to defaultMaxAttempts times with exponential backoff,
// stopping early on non-retryable errors or context cancellation.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= defaultMaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == defaultMaxAttempts {
			return err
		}

		backoff := baseBackoff << (attempt - 1)
		slog.WarnContext(ctx, "provider call failed, retrying",
			"op", op, "attempt", attempt, "backoff_ms", backoff.Milliseconds(), "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
