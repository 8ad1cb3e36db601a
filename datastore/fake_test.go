package datastore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/girmesh03/Task-Manager-sub001/events"
)

type fakeSession struct {
	id     string
	notify Notify
	closed atomic.Bool

	mu      sync.Mutex
	pingErr error
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

func (s *fakeSession) Close(ctx context.Context) error {
	s.closed.Store(true)
	return nil
}

func (s *fakeSession) failPings(err error) {
	s.mu.Lock()
	s.pingErr = err
	s.mu.Unlock()
}

// fakeDialer fails the attempts listed in failures (by 1-based ordinal)
// and succeeds otherwise.
type fakeDialer struct {
	mu       sync.Mutex
	failures map[int]error
	failAll  error
	calls    int
	sessions []*fakeSession
}

func (d *fakeDialer) Dial(ctx context.Context, cfg ConnectionConfig, notify Notify) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.failAll != nil {
		return nil, d.failAll
	}
	if err := d.failures[d.calls]; err != nil {
		return nil, err
	}
	s := &fakeSession{id: fmt.Sprintf("s-%d", len(d.sessions)+1), notify: notify}
	d.sessions = append(d.sessions, s)
	return s, nil
}

func (d *fakeDialer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *fakeDialer) Session(i int) *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.sessions) {
		return nil
	}
	return d.sessions[i]
}

// waitRecorder records backoff delays without sleeping.
type waitRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
	// cancelAfter cancels the context once this many waits happened.
	cancelAfter int
	cancel      context.CancelFunc
}

func (w *waitRecorder) Wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.delays = append(w.delays, d)
	n := len(w.delays)
	w.mu.Unlock()

	if w.cancel != nil && n >= w.cancelAfter {
		w.cancel()
	}
	return ctx.Err()
}

func (w *waitRecorder) Delays() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.delays...)
}

type eventLog struct {
	mu  sync.Mutex
	evs []events.Event
}

func recordEvents(bus *events.Bus) *eventLog {
	l := &eventLog{}
	bus.SubscribeAll(func(ctx context.Context, ev events.Event) error {
		l.mu.Lock()
		l.evs = append(l.evs, ev)
		l.mu.Unlock()
		return nil
	})
	return l
}

func (l *eventLog) All() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]events.Event(nil), l.evs...)
}

func (l *eventLog) Topics() []events.Topic {
	var out []events.Topic
	for _, ev := range l.All() {
		out = append(out, ev.Topic)
	}
	return out
}

func (l *eventLog) Count(topic events.Topic, source events.Source) int {
	n := 0
	for _, ev := range l.All() {
		if ev.Topic == topic && ev.Source == source {
			n++
		}
	}
	return n
}

var errRefused = errors.New("ECONNREFUSED")
