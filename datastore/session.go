package datastore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is a live, verified connection to the datastore.
//
// Drivers return their concrete client type through this interface; callers
// type-assert to reach the query API (for example *mongostore.Session).
type Session interface {
	// ID uniquely identifies the session for events and logs.
	ID() string
	// Ping issues a lightweight liveness check.
	Ping(ctx context.Context) error
	// Close releases every network resource held by the session.
	Close(ctx context.Context) error
}

// NotificationKind classifies an asynchronous session notification.
type NotificationKind int

const (
	// NotifyError reports a failure observed on a live session.
	NotifyError NotificationKind = iota
	// NotifyDisconnected reports that the session lost its server.
	NotifyDisconnected
)

func (k NotificationKind) String() string {
	if k == NotifyDisconnected {
		return "disconnected"
	}
	return "error"
}

// Notification is pushed by a driver when its session fails after Dial.
type Notification struct {
	Kind NotificationKind
	Err  error
}

// Notify receives session notifications. Drivers may call it from any
// goroutine, including before Dial returns.
type Notify func(Notification)

// Dialer performs one connection attempt.
//
// Dial blocks until the session is verified or the attempt fails. It must
// not retry. Errors wrapping ErrInvalidConfig stop the retry loop; every
// other error is retried.
type Dialer interface {
	Dial(ctx context.Context, cfg ConnectionConfig, notify Notify) (Session, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, cfg ConnectionConfig, notify Notify) (Session, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, cfg ConnectionConfig, notify Notify) (Session, error) {
	return f(ctx, cfg, notify)
}

// AttemptRecord describes one connection attempt.
type AttemptRecord struct {
	Attempt  int
	Time     time.Time
	Duration time.Duration
	Err      error
}

// NewSessionID returns a fresh random session identifier for drivers.
func NewSessionID() string {
	return uuid.NewString()
}
