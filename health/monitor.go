package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/girmesh03/Task-Manager-sub001/events"
	"github.com/girmesh03/Task-Manager-sub001/observe"
	"github.com/girmesh03/Task-Manager-sub001/resilience"
)

// Monitor defaults.
const (
	DefaultProbeInterval    = 30 * time.Second
	DefaultProbeTimeout     = 5 * time.Second
	DefaultFailureThreshold = 3
)

// Target is a live session that can be probed.
type Target interface {
	ID() string
	Ping(ctx context.Context) error
}

// MonitorConfig configures a Monitor. Zero values use the defaults.
type MonitorConfig struct {
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold int           `koanf:"failure_threshold"`
	HistorySize      int           `koanf:"history_size"`
}

func (c MonitorConfig) withDefaults() MonitorConfig {
	if c.Interval <= 0 {
		c.Interval = DefaultProbeInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultProbeTimeout
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	return c
}

// MonitorOption customizes a Monitor.
type MonitorOption func(*Monitor)

// WithEmitter sets where probe failures are published.
func WithEmitter(e events.Emitter) MonitorOption {
	return func(m *Monitor) {
		if e != nil {
			m.emitter = e
		}
	}
}

// WithLogger sets the monitor logger.
func WithLogger(l observe.Logger) MonitorOption {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMetrics sets the probe metrics sink.
func WithMetrics(mt observe.Metrics) MonitorOption {
	return func(m *Monitor) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// WithTracer sets the probe tracer.
func WithTracer(t observe.Tracer) MonitorOption {
	return func(m *Monitor) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithOnUnhealthy sets the hook invoked once when consecutive probe failures
// reach the threshold. It runs on the monitor goroutine and must not call Stop.
func WithOnUnhealthy(fn func(sessionID string, cause error)) MonitorOption {
	return func(m *Monitor) { m.onUnhealthy = fn }
}

// Monitor periodically probes the current session.
//
// It reports failures on the event bus and through the OnUnhealthy hook. It
// never closes or replaces the session itself.
type Monitor struct {
	cfg         MonitorConfig
	target      func() Target
	emitter     events.Emitter
	logger      observe.Logger
	metrics     observe.Metrics
	tracer      observe.Tracer
	timeout     *resilience.Timeout
	onUnhealthy func(string, error)
	history     *Window

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	failMu   sync.Mutex
	failures int
	tripped  bool
}

// NewMonitor creates a stopped monitor. target returns the session to probe,
// or nil when there is none.
func NewMonitor(cfg MonitorConfig, target func() Target, opts ...MonitorOption) *Monitor {
	cfg = cfg.withDefaults()
	m := &Monitor{
		cfg:     cfg,
		target:  target,
		emitter: events.Discard,
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
		tracer:  observe.NopTracer(),
		timeout: resilience.NewTimeout(cfg.Timeout),
		history: NewWindow(cfg.HistorySize),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.target == nil {
		m.target = func() Target { return nil }
	}
	return m
}

// Config returns the effective configuration.
func (m *Monitor) Config() MonitorConfig { return m.cfg }

// Start begins probing every Interval until ctx is done or Stop is called.
// Starting a running monitor is a no-op; a monitor whose ctx ended may be
// started again. The failure count is reset.
func (m *Monitor) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.runningLocked() {
		return
	}
	m.stopLocked()

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.resetFailures()

	m.wg.Add(1)
	go m.loop(ctx, m.done)
}

// Stop cancels the probe timer and waits for an in-flight probe to return.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	m.wg.Wait()
}

// Running reports whether the probe loop is active. It turns false as soon
// as the loop exits, including when the Start context ends.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.runningLocked()
}

func (m *Monitor) runningLocked() bool {
	if m.cancel == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer m.wg.Done()
	defer close(done)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	m.logger.Debug(ctx, "health monitor started",
		observe.Field{Key: "interval_ms", Value: m.cfg.Interval.Milliseconds()})

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug(context.Background(), "health monitor stopped")
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

// Probe issues one liveness probe against the current session. It returns
// false when there was no session to probe.
func (m *Monitor) Probe(ctx context.Context) (ProbeResult, bool) {
	target := m.target()
	if target == nil {
		m.logger.Debug(ctx, "no session to probe, skipping")
		return ProbeResult{}, false
	}

	id := target.ID()
	start := time.Now()
	spanCtx, span := m.tracer.StartSpan(ctx, observe.SpanProbe, attribute.String("datastore.session", id))
	err := m.timeout.Execute(spanCtx, target.Ping)
	m.tracer.EndSpan(span, err)

	res := ProbeResult{
		Time:      start,
		SessionID: id,
		Alive:     err == nil,
		Err:       err,
		Duration:  time.Since(start),
	}

	// A probe cut short by shutdown says nothing about the session.
	if err != nil && ctx.Err() != nil {
		return res, true
	}

	m.history.Add(res)
	m.metrics.RecordProbe(ctx, res.Duration, err)

	if err == nil {
		m.resetFailures()
		m.logger.Debug(ctx, "heartbeat",
			observe.Field{Key: "session", Value: id},
			observe.Field{Key: "rtt_ms", Value: res.Duration.Milliseconds()},
		)
		return res, true
	}

	failures, trip := m.recordFailure()
	m.logger.Warn(ctx, "liveness probe failed",
		observe.Field{Key: "session", Value: id},
		observe.Field{Key: "consecutive_failures", Value: failures},
		observe.Field{Key: "error", Value: err},
	)
	m.emitter.Emit(ctx, events.Event{
		Topic:     events.TopicError,
		Source:    events.SourceProbe,
		SessionID: id,
		Cause:     fmt.Errorf("%w: %w", ErrProbeFailed, err),
	})

	if trip && m.onUnhealthy != nil {
		m.onUnhealthy(id, err)
	}
	return res, true
}

func (m *Monitor) resetFailures() {
	m.failMu.Lock()
	m.failures = 0
	m.tripped = false
	m.failMu.Unlock()
}

func (m *Monitor) recordFailure() (int, bool) {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	m.failures++
	if m.failures >= m.cfg.FailureThreshold && !m.tripped {
		m.tripped = true
		return m.failures, true
	}
	return m.failures, false
}

// ConsecutiveFailures returns the current run of failed probes.
func (m *Monitor) ConsecutiveFailures() int {
	m.failMu.Lock()
	defer m.failMu.Unlock()
	return m.failures
}

// History returns the retained probe results, oldest first.
func (m *Monitor) History() []ProbeResult {
	return m.history.Snapshot()
}

// Name implements Checker.
func (m *Monitor) Name() string { return "liveness" }

// Check implements Checker from the most recent probe without issuing one.
func (m *Monitor) Check(ctx context.Context) Result {
	last, ok := m.history.Last()
	if !ok {
		return Degraded("no probe yet")
	}

	details := map[string]any{
		"session":              last.SessionID,
		"last_probe":           last.Time.UTC().Format(time.RFC3339),
		"rtt":                  last.Duration.String(),
		"consecutive_failures": m.ConsecutiveFailures(),
		"history":              len(m.History()),
	}
	if last.Alive {
		return Healthy("last probe succeeded").WithDetails(details)
	}
	return Unhealthy("last probe failed", last.Err).WithDetails(details)
}

var _ Checker = (*Monitor)(nil)
