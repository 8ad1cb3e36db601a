package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordWait returns a Wait func that records requested delays without sleeping.
func recordWait(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestNewRetry(t *testing.T) {
	r := NewRetry(RetryConfig{})

	if r.config.MaxAttempts != 0 {
		t.Errorf("MaxAttempts = %d, want 0", r.config.MaxAttempts)
	}
	if r.config.Backoff.Base != time.Second {
		t.Errorf("Backoff.Base = %v, want 1s", r.config.Backoff.Base)
	}
	if r.config.Backoff.Max != 30*time.Second {
		t.Errorf("Backoff.Max = %v, want 30s", r.config.Backoff.Max)
	}
	if r.config.Wait == nil || r.config.RetryIf == nil {
		t.Error("Wait and RetryIf should default")
	}
}

func TestRetry_SuccessOnFirstAttempt(t *testing.T) {
	var delays []time.Duration
	r := NewRetry(RetryConfig{Wait: recordWait(&delays)})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if len(delays) != 0 {
		t.Errorf("delays = %v, want none", delays)
	}
}

func TestRetry_SuccessOnRetry(t *testing.T) {
	var delays []time.Duration
	r := NewRetry(RetryConfig{
		Backoff: LinearBackoff(time.Second, 30*time.Second),
		Wait:    recordWait(&delays),
	})

	var ordinals []int
	testErr := errors.New("ECONNREFUSED")

	err := r.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		ordinals = append(ordinals, attempt)
		if attempt < 3 {
			return testErr
		}
		return nil
	})

	if err != nil {
		t.Errorf("Execute() error = %v", err)
	}
	if len(ordinals) != 3 || ordinals[0] != 1 || ordinals[2] != 3 {
		t.Errorf("ordinals = %v, want [1 2 3]", ordinals)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("delays = %v, want [1s 2s]", delays)
	}
}

func TestRetry_UnboundedUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	r := NewRetry(RetryConfig{
		Wait: func(ctx context.Context, d time.Duration) error {
			if attempts == 50 {
				cancel()
			}
			return ctx.Err()
		},
	})

	err := r.Execute(ctx, func(ctx context.Context, attempt int) error {
		attempts++
		return errors.New("unreachable")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if attempts != 50 {
		t.Errorf("attempts = %d, want 50", attempts)
	}
}

func TestRetry_ExhaustedAttempts(t *testing.T) {
	var delays []time.Duration
	r := NewRetry(RetryConfig{MaxAttempts: 3, Wait: recordWait(&delays)})

	attempts := 0
	testErr := errors.New("persistent error")

	err := r.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return testErr
	})

	if !errors.Is(err, ErrMaxRetriesExceeded) {
		t.Errorf("Execute() error = %v, want ErrMaxRetriesExceeded", err)
	}
	if !errors.Is(err, testErr) {
		t.Errorf("Execute() error = %v, want wrapped %v", err, testErr)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if len(delays) != 2 {
		t.Errorf("waits = %d, want 2", len(delays))
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	r := NewRetry(RetryConfig{Backoff: LinearBackoff(time.Hour, time.Hour)})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := r.Execute(ctx, func(ctx context.Context, attempt int) error {
		return errors.New("test error")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not interrupt the backoff wait")
	}
}

func TestRetry_FailureAfterCancelNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	retried, waited := 0, 0
	r := NewRetry(RetryConfig{
		OnRetry: func(attempt int, err error, delay time.Duration) { retried++ },
		Wait: func(ctx context.Context, d time.Duration) error {
			waited++
			return nil
		},
	})

	attempts := 0
	err := r.Execute(ctx, func(ctx context.Context, attempt int) error {
		attempts++
		cancel()
		return errors.New("dial tcp: operation was canceled")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
	if retried != 0 {
		t.Errorf("OnRetry calls = %d, want 0", retried)
	}
	if waited != 0 {
		t.Errorf("waits = %d, want 0", waited)
	}
}

func TestRetry_RetryIf(t *testing.T) {
	fatal := errors.New("fatal")
	var delays []time.Duration

	r := NewRetry(RetryConfig{
		Wait: recordWait(&delays),
		RetryIf: func(err error) bool {
			return !errors.Is(err, fatal)
		},
	})

	attempts := 0
	err := r.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		attempts++
		return fatal
	})

	if err != fatal {
		t.Errorf("Execute() error = %v, want %v", err, fatal)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_OnRetryBeforeWait(t *testing.T) {
	var events []string

	r := NewRetry(RetryConfig{
		Backoff: LinearBackoff(10*time.Millisecond, time.Second),
		OnRetry: func(attempt int, err error, delay time.Duration) {
			events = append(events, "retry:"+delay.String())
		},
		Wait: func(ctx context.Context, d time.Duration) error {
			events = append(events, "wait")
			return nil
		},
	})

	_ = r.Execute(context.Background(), func(ctx context.Context, attempt int) error {
		if attempt == 3 {
			return nil
		}
		return errors.New("test error")
	})

	want := []string{"retry:10ms", "wait", "retry:20ms", "wait"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Sleep() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
}
