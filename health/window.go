package health

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of probe results a Window keeps.
const DefaultHistorySize = 16

// ProbeResult is the outcome of one liveness probe.
type ProbeResult struct {
	Time      time.Time
	SessionID string
	Alive     bool
	Err       error
	Duration  time.Duration
}

// Window is a bounded trailing history of probe results.
// Safe for concurrent use.
type Window struct {
	mu   sync.RWMutex
	buf  []ProbeResult
	next int
	full bool
}

// NewWindow creates a window holding at most size results.
// Non-positive sizes use DefaultHistorySize.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Window{buf: make([]ProbeResult, size)}
}

// Add records r, evicting the oldest entry when full.
func (w *Window) Add(r ProbeResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf[w.next] = r
	w.next = (w.next + 1) % len(w.buf)
	if w.next == 0 {
		w.full = true
	}
}

// Len returns the number of retained results.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.full {
		return len(w.buf)
	}
	return w.next
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}

// Last returns the most recent result.
func (w *Window) Last() (ProbeResult, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.full && w.next == 0 {
		return ProbeResult{}, false
	}
	i := (w.next - 1 + len(w.buf)) % len(w.buf)
	return w.buf[i], true
}

// Snapshot returns the retained results, oldest first.
func (w *Window) Snapshot() []ProbeResult {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.full {
		out := make([]ProbeResult, w.next)
		copy(out, w.buf[:w.next])
		return out
	}
	out := make([]ProbeResult, 0, len(w.buf))
	out = append(out, w.buf[w.next:]...)
	out = append(out, w.buf[:w.next]...)
	return out
}

// Reset drops every retained result.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	clear(w.buf)
	w.next = 0
	w.full = false
}
