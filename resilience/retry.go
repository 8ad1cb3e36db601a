package resilience

import (
	"context"
	"time"
)

// RetryConfig configures the retry behavior.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	// Zero or a negative value retries until the operation succeeds, RetryIf
	// rejects the error or the context is done.
	// Default: 0 (unbounded)
	MaxAttempts int

	// Backoff computes the wait after each failed attempt.
	// Default: LinearBackoff(1s, 30s)
	Backoff Backoff

	// RetryIf determines if an error should trigger a retry.
	// Default: all non-nil errors trigger retry.
	RetryIf func(err error) bool

	// OnRetry is called after a failed attempt and before the wait begins.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Wait suspends for d or until ctx is done.
	// Default: a timer raced against ctx.Done().
	Wait func(ctx context.Context, d time.Duration) error
}

// Retry implements retry with backoff.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a new retry handler.
func NewRetry(config RetryConfig) *Retry {
	config.Backoff = config.Backoff.withDefaults()
	if config.RetryIf == nil {
		config.RetryIf = func(err error) bool { return err != nil }
	}
	if config.Wait == nil {
		config.Wait = Sleep
	}

	return &Retry{config: config}
}

// Execute runs op until it succeeds. The attempt ordinal passed to op starts at 1.
//
// When attempts are exhausted the last error is wrapped with
// ErrMaxRetriesExceeded. Errors rejected by RetryIf are returned unchanged.
// If ctx is done when op fails, ctx.Err() is returned without calling OnRetry.
func (r *Retry) Execute(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		// A failure caused by cancellation is not retried or reported.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if !r.config.RetryIf(err) {
			return err
		}

		if r.config.MaxAttempts > 0 && attempt >= r.config.MaxAttempts {
			return &ExhaustedError{Attempts: attempt, Err: err}
		}

		delay := r.config.Backoff.Delay(attempt)

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		if err := r.config.Wait(ctx, delay); err != nil {
			return err
		}
	}
}

// Config returns the retry configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
