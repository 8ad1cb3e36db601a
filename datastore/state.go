package datastore

import "sync/atomic"

// State is the connection state published by the Manager.
type State int32

const (
	// StateDisconnected is the initial state, and the state between sessions.
	StateDisconnected State = iota
	// StateConnecting covers the retry loop, including backoff waits.
	StateConnecting
	// StateConnected means a verified session is installed.
	StateConnected
	// StateErrored means the installed session failed and is being retired.
	StateErrored
	// StateAborted is terminal: the configuration cannot work.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateErrored:
		return "errored"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

type stateCell struct {
	v atomic.Int32
}

func (c *stateCell) load() State { return State(c.v.Load()) }

// swap stores s and returns the previous state.
func (c *stateCell) swap(s State) State { return State(c.v.Swap(int32(s))) }
