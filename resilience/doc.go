// Package resilience provides the retry primitives used by the datastore
// connection manager.
//
// # Backoff
//
// Backoff is a pure policy mapping a failed attempt ordinal to the wait
// before the next attempt. The default is a linear ramp capped at 30s:
//
//	b := resilience.LinearBackoff(time.Second, 30*time.Second)
//	b.Delay(1) // 1s
//	b.Delay(2) // 2s
//	b.Delay(90) // 30s
//
// # Retry
//
// Retry drives an operation with a Backoff between failures. MaxAttempts of
// zero retries until success, a non-retryable error or context cancellation:
//
//	r := resilience.NewRetry(resilience.RetryConfig{
//	    Backoff: resilience.LinearBackoff(time.Second, 30*time.Second),
//	    RetryIf: func(err error) bool { return !errors.Is(err, errFatal) },
//	    OnRetry: func(attempt int, err error, delay time.Duration) {
//	        log.Printf("attempt %d failed: %v; retrying in %v", attempt, err, delay)
//	    },
//	})
//	err := r.Execute(ctx, func(ctx context.Context, attempt int) error {
//	    return dial(ctx)
//	})
//
// # Timeout
//
// Timeout bounds a single operation such as a liveness probe:
//
//	err := resilience.ExecuteWithTimeout(ctx, 2*time.Second, session.Ping)
package resilience
