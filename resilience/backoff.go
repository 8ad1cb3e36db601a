package resilience

import (
	"math"
	"time"
)

// BackoffStrategy defines how delays increase between retries.
type BackoffStrategy int

const (
	// BackoffLinear grows the delay by Base for every failed attempt.
	BackoffLinear BackoffStrategy = iota
	// BackoffExponential multiplies the delay by Multiplier for every failed attempt.
	BackoffExponential
	// BackoffConstant waits Base after every failed attempt.
	BackoffConstant
)

// String returns the configuration name of the strategy.
func (s BackoffStrategy) String() string {
	switch s {
	case BackoffLinear:
		return "linear"
	case BackoffExponential:
		return "exponential"
	case BackoffConstant:
		return "constant"
	default:
		return "unknown"
	}
}

// ParseBackoffStrategy parses a strategy name. Unknown names report ok=false.
func ParseBackoffStrategy(s string) (BackoffStrategy, bool) {
	switch s {
	case "linear", "":
		return BackoffLinear, true
	case "exponential":
		return BackoffExponential, true
	case "constant":
		return BackoffConstant, true
	default:
		return BackoffLinear, false
	}
}

// Default backoff values.
const (
	DefaultBackoffBase       = time.Second
	DefaultBackoffMax        = 30 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// Backoff maps a failed attempt ordinal to the wait before the next attempt.
//
// Delay is a pure function of its input: it performs no I/O, keeps no state
// and adds no jitter, so the same attempt always yields the same duration.
type Backoff struct {
	// Strategy is the growth strategy.
	// Default: BackoffLinear
	Strategy BackoffStrategy

	// Base is the wait after the first failed attempt.
	// Default: 1s
	Base time.Duration

	// Max caps the wait.
	// Default: 30s
	Max time.Duration

	// Multiplier is used by BackoffExponential.
	// Default: 2.0
	Multiplier float64
}

// LinearBackoff returns a linear policy with the given base and cap.
func LinearBackoff(base, max time.Duration) Backoff {
	return Backoff{Strategy: BackoffLinear, Base: base, Max: max}.withDefaults()
}

func (b Backoff) withDefaults() Backoff {
	if b.Base <= 0 {
		b.Base = DefaultBackoffBase
	}
	if b.Max <= 0 {
		b.Max = DefaultBackoffMax
	}
	if b.Max < b.Base {
		b.Max = b.Base
	}
	if b.Multiplier <= 1 {
		b.Multiplier = DefaultBackoffMultiplier
	}
	return b
}

// Delay returns the wait before attempt+1, given that attempt (1-based) failed.
// Ordinals below 1 are treated as 1.
func (b Backoff) Delay(attempt int) time.Duration {
	b = b.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	var delay time.Duration
	switch b.Strategy {
	case BackoffConstant:
		delay = b.Base

	case BackoffExponential:
		f := float64(b.Base) * math.Pow(b.Multiplier, float64(attempt-1))
		if f >= float64(b.Max) || math.IsInf(f, 0) || math.IsNaN(f) {
			return b.Max
		}
		delay = time.Duration(f)

	default:
		// Guard the multiplication against overflow for very large ordinals.
		if int64(attempt) > int64(b.Max/b.Base) {
			return b.Max
		}
		delay = b.Base * time.Duration(attempt)
	}

	if delay > b.Max {
		delay = b.Max
	}
	return delay
}
