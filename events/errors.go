package events

import "errors"

var (
	// ErrHandlerPanic wraps a recovered panic from a subscriber.
	ErrHandlerPanic = errors.New("events: handler panicked")

	// ErrNoBrokers indicates a Kafka sink was configured without brokers.
	ErrNoBrokers = errors.New("events: no kafka brokers configured")
)
