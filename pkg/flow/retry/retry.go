// Package retry provides bounded retry with exponential backoff for
// transient provider failures.
//
// Only rate-limit-class errors are retried by default (see RateLimited and
// IsRateLimited); every other error class propagates immediately. The wait
// between attempts is a cooperative suspension: it selects on the context,
// so it blocks only the calling goroutine, never the process.
package retry

import (
	"context"
	"log/slog"
	"time"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int

	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff duration.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to the backoff after each retry.
	BackoffFactor float64

	// Logger receives a warning line before each retry sleep.
	// Nil disables retry logging.
	Logger *slog.Logger

	// RetryableFunc optionally overrides the default retryability check
	// (IsRateLimited).
	RetryableFunc func(error) bool

	// Sleep optionally overrides the wait between attempts. It must respect
	// context cancellation. Used by tests to record the backoff schedule.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Default is the standard retry configuration: 3 attempts, 1 second initial
// delay, doubling after each retry.
var Default = Config{
	MaxAttempts:    3,
	InitialBackoff: 1 * time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
}

// Do executes fn with retries based on the configuration.
//
// The backoff schedule is InitialBackoff * BackoffFactor^n for the n-th
// retry (n starting at 0), capped at MaxBackoff. After the final failed
// attempt the error is returned without a sleep.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = Default.BackoffFactor
	}

	isRetryable := cfg.RetryableFunc
	if isRetryable == nil {
		isRetryable = IsRateLimited
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = waitContext
	}

	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		// Check context before each attempt
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// Anything but a rate-limit-class error propagates immediately
		if !isRetryable(err) {
			return zero, err
		}

		// No sleep after the last attempt
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		if cfg.Logger != nil {
			cfg.Logger.Warn("rate limit hit, retrying",
				slog.Duration("delay", backoff),
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
		}

		if err := sleep(ctx, backoff); err != nil {
			return zero, err
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return zero, lastErr
}

// waitContext sleeps for d or until the context is cancelled.
func waitContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
