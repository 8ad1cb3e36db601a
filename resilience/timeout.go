package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds operations when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Timeout bounds the duration of an operation.
type Timeout struct {
	limit time.Duration
}

// NewTimeout creates a timeout wrapper. Non-positive limits use DefaultTimeout.
func NewTimeout(limit time.Duration) *Timeout {
	if limit <= 0 {
		limit = DefaultTimeout
	}
	return &Timeout{limit: limit}
}

// Limit returns the configured bound.
func (t *Timeout) Limit() time.Duration {
	return t.limit
}

// Execute runs op with a derived deadline.
//
// The caller is released when the deadline passes even if op ignores its
// context; op keeps running in the background until it returns. A deadline
// hit is reported as ErrTimeout, a parent cancellation as ctx.Err().
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, limit time.Duration, op func(context.Context) error) error {
	return NewTimeout(limit).Execute(ctx, op)
}
