package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/girmesh03/Task-Manager-sub001/observe"
)

// Topic names a lifecycle transition.
type Topic string

const (
	// TopicConnected fires once per successfully established session.
	TopicConnected Topic = "connected"
	// TopicError fires when a live session or its liveness probe fails.
	TopicError Topic = "error"
	// TopicDisconnected fires when a live session is lost or retired.
	TopicDisconnected Topic = "disconnected"
)

// Topics lists every lifecycle topic in a stable order.
var Topics = []Topic{TopicConnected, TopicError, TopicDisconnected}

// Source identifies which component produced an event.
type Source string

const (
	SourceManager Source = "manager"
	SourceSession Source = "session"
	SourceProbe   Source = "probe"
)

// Event is a lifecycle notification.
type Event struct {
	Topic     Topic
	Source    Source
	State     string
	SessionID string
	Cause     error
	Time      time.Time
}

// Handler reacts to an event. Returned errors are logged by the bus.
type Handler func(ctx context.Context, ev Event) error

// Emitter publishes lifecycle events.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous, in-process publish/subscribe hub for lifecycle events.
//
// Contract:
//   - Concurrency: Subscribe and Emit are safe for concurrent use.
//   - Ordering: Emit invokes handlers in registration order on the caller's goroutine.
//   - Errors: a failing or panicking handler is logged and skipped.
type Bus struct {
	logger observe.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

// NewBus creates an empty bus. A nil logger discards handler failures.
func NewBus(logger observe.Logger) *Bus {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Bus{
		logger: logger,
		subs:   make(map[Topic][]subscription),
	}
}

// Subscribe registers handler on topic and returns a func that removes it.
func (b *Bus) Subscribe(topic Topic, handler Handler) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(topic, id) })
	}
}

// SubscribeAll registers handler on every lifecycle topic.
func (b *Bus) SubscribeAll(handler Handler) (unsubscribe func()) {
	cancels := make([]func(), 0, len(Topics))
	for _, topic := range Topics {
		cancels = append(cancels, b.Subscribe(topic, handler))
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func (b *Bus) remove(topic Topic, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[topic]
	for i, s := range subs {
		if s.id == id {
			// Copy so that an Emit iterating the old slice is unaffected.
			next := make([]subscription, 0, len(subs)-1)
			next = append(next, subs[:i]...)
			next = append(next, subs[i+1:]...)
			b.subs[topic] = next
			return
		}
	}
}

// Subscribers returns the number of handlers registered on topic.
func (b *Bus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Emit delivers ev to every handler subscribed to ev.Topic.
func (b *Bus) Emit(ctx context.Context, ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	b.mu.RLock()
	subs := b.subs[ev.Topic]
	b.mu.RUnlock()

	for _, s := range subs {
		if err := b.invoke(ctx, s.handler, ev); err != nil {
			b.logger.Warn(ctx, "lifecycle handler failed",
				observe.Field{Key: "topic", Value: string(ev.Topic)},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}
}

func (b *Bus) invoke(ctx context.Context, h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return h(ctx, ev)
}

var _ Emitter = (*Bus)(nil)

type discard struct{}

func (discard) Emit(context.Context, Event) {}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}
