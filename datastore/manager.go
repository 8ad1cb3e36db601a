package datastore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/girmesh03/Task-Manager-sub001/events"
	"github.com/girmesh03/Task-Manager-sub001/health"
	"github.com/girmesh03/Task-Manager-sub001/observe"
	"github.com/girmesh03/Task-Manager-sub001/resilience"
)

// DefaultCloseTimeout bounds Session.Close when a session is retired.
const DefaultCloseTimeout = 10 * time.Second

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to observe.NopLogger.
func WithLogger(l observe.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBus sets the lifecycle bus. Defaults to a private bus reachable through Events.
func WithBus(b *events.Bus) Option {
	return func(m *Manager) {
		if b != nil {
			m.bus = b
		}
	}
}

// WithBackoff sets the delay policy between failed attempts.
func WithBackoff(b resilience.Backoff) Option {
	return func(m *Manager) { m.backoff = b }
}

// WithWait replaces the backoff sleep. Tests use it to observe delays.
func WithWait(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(m *Manager) {
		if wait != nil {
			m.wait = wait
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt observe.Metrics) Option {
	return func(m *Manager) {
		if mt != nil {
			m.metrics = mt
		}
	}
}

// WithTracer sets the tracer for connect, attempt and probe spans.
func WithTracer(t observe.Tracer) Option {
	return func(m *Manager) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithMonitorConfig configures the liveness monitor.
func WithMonitorConfig(cfg health.MonitorConfig) Option {
	return func(m *Manager) { m.monitorCfg = cfg }
}

// WithCloseTimeout bounds how long a retiring session may take to close.
func WithCloseTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.closeTimeout = d
		}
	}
}

// slot holds a dialled session. failed flips once when the session is
// reported lost, so that only one reconnection is requested per session.
// Notifications that arrive before the slot is installed are held in early
// and replayed by install.
type slot struct {
	session Session
	failed  atomic.Bool

	mu        sync.Mutex
	installed bool
	early     []Notification
}

// hold queues note when the slot is not installed yet.
func (sl *slot) hold(note Notification) bool {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.installed {
		return false
	}
	sl.early = append(sl.early, note)
	return true
}

// markInstalled returns the notifications held so far.
func (sl *slot) markInstalled() []Notification {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.installed = true
	early := sl.early
	sl.early = nil
	return early
}

type reconnectRequest struct {
	sessionID string
	cause     error
}

// Manager owns the datastore session.
//
// A single goroutine (the one running Connect or Run) moves the state and
// installs or retires sessions. Readers use State, Ready and Session, which
// never block. Outward notifications go through the lifecycle bus only.
type Manager struct {
	cfg          ConnectionConfig
	dialer       Dialer
	logger       observe.Logger
	bus          *events.Bus
	backoff      resilience.Backoff
	wait         func(context.Context, time.Duration) error
	metrics      observe.Metrics
	tracer       observe.Tracer
	monitorCfg   health.MonitorConfig
	closeTimeout time.Duration
	monitor      *health.Monitor

	state       stateCell
	slot        atomic.Pointer[slot]
	lastAttempt atomic.Pointer[AttemptRecord]
	running     atomic.Bool
	connected   bool
	reconnect   chan reconnectRequest
}

// New creates a disconnected manager. cfg is copied with defaults applied.
func New(cfg ConnectionConfig, dialer Dialer, opts ...Option) *Manager {
	m := &Manager{
		cfg:          cfg.WithDefaults(),
		dialer:       dialer,
		logger:       observe.NopLogger(),
		backoff:      resilience.LinearBackoff(resilience.DefaultBackoffBase, resilience.DefaultBackoffMax),
		wait:         resilience.Sleep,
		metrics:      observe.NopMetrics(),
		tracer:       observe.NopTracer(),
		closeTimeout: DefaultCloseTimeout,
		reconnect:    make(chan reconnectRequest, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.bus == nil {
		m.bus = events.NewBus(m.logger)
	}
	m.monitor = health.NewMonitor(m.monitorCfg, m.probeTarget,
		health.WithEmitter(m.bus),
		health.WithLogger(m.logger),
		health.WithMetrics(m.metrics),
		health.WithTracer(m.tracer),
		health.WithOnUnhealthy(m.onUnhealthy),
	)
	return m
}

// Config returns the effective connection configuration.
func (m *Manager) Config() ConnectionConfig { return m.cfg }

// State returns the current connection state.
func (m *Manager) State() State { return m.state.load() }

// Ready reports whether a verified session is installed.
func (m *Manager) Ready() bool { return m.state.load() == StateConnected }

// Events returns the lifecycle bus.
func (m *Manager) Events() *events.Bus { return m.bus }

// Monitor returns the liveness monitor.
func (m *Manager) Monitor() *health.Monitor { return m.monitor }

// LastAttempt returns the most recent connection attempt, if any.
func (m *Manager) LastAttempt() (AttemptRecord, bool) {
	if r := m.lastAttempt.Load(); r != nil {
		return *r, true
	}
	return AttemptRecord{}, false
}

// Session returns the installed session, or ErrNotConnected.
func (m *Manager) Session() (Session, error) {
	sl := m.slot.Load()
	if sl == nil {
		return nil, ErrNotConnected
	}
	return sl.session, nil
}

// Connect validates the configuration and dials until a session is verified.
//
// Connectivity failures are retried without limit, with the backoff policy
// between attempts. Configuration faults return a *ConfigError at once and
// leave the manager in StateAborted. Cancelling ctx aborts a pending wait and
// returns ctx.Err(). On success the liveness monitor runs until the session
// is retired by Run or Close; ctx only bounds the connection cycle.
func (m *Manager) Connect(ctx context.Context) error {
	if err := m.cfg.Validate(); err != nil {
		m.abort(ctx, err)
		return err
	}
	if m.dialer == nil {
		err := &ConfigError{Setting: SettingURI, Err: fmt.Errorf("%w %q", ErrUnknownScheme, m.cfg.Scheme())}
		m.abort(ctx, err)
		return err
	}
	return m.connect(ctx)
}

func (m *Manager) abort(ctx context.Context, err error) {
	fields := []observe.Field{{Key: "error", Value: err}}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		fields = append(fields, observe.Field{Key: "setting", Value: cfgErr.Setting})
	}
	m.logger.Error(ctx, err.Error(), fields...)
	m.setState(ctx, StateAborted)
}

func (m *Manager) connect(ctx context.Context) error {
	m.setState(ctx, StateConnecting)
	m.logger.Debug(ctx, "connecting",
		observe.Field{Key: "uri", Value: observe.RedactURI(m.cfg.URI)},
		observe.Field{Key: "min_pool_size", Value: m.cfg.MinPoolSize},
		observe.Field{Key: "selection_timeout_ms", Value: m.cfg.SelectionTimeout.Milliseconds()},
	)

	ctx, span := m.tracer.StartSpan(ctx, observe.SpanConnect,
		attribute.String("datastore.scheme", m.cfg.Scheme()))

	var installed *slot
	retry := resilience.NewRetry(resilience.RetryConfig{
		Backoff: m.backoff,
		RetryIf: func(err error) bool { return !errors.Is(err, ErrInvalidConfig) },
		OnRetry: func(attempt int, err error, delay time.Duration) {
			m.logger.Info(ctx, fmt.Sprintf("retrying in %dms", delay.Milliseconds()),
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
			)
		},
		Wait: m.wait,
	})
	err := retry.Execute(ctx, func(ctx context.Context, attempt int) error {
		sl, err := m.attempt(ctx, attempt)
		if err == nil {
			installed = sl
		}
		return err
	})
	m.tracer.EndSpan(span, err)

	if err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			m.abort(ctx, err)
		} else {
			m.setState(ctx, StateDisconnected)
		}
		return err
	}

	m.install(ctx, installed)
	return nil
}

func (m *Manager) attempt(ctx context.Context, n int) (*slot, error) {
	start := time.Now()
	actx, span := m.tracer.StartSpan(ctx, observe.SpanAttempt, attribute.Int("datastore.attempt", n))

	sl := &slot{}
	session, err := m.dialer.Dial(actx, m.cfg, func(note Notification) {
		m.onNotification(sl, note)
	})
	if err == nil && session == nil {
		err = errors.New("dialer returned no session")
	}

	rec := &AttemptRecord{Attempt: n, Time: start, Duration: time.Since(start), Err: err}
	m.lastAttempt.Store(rec)
	m.metrics.RecordAttempt(ctx, m.cfg.Scheme(), n, rec.Duration, err)
	m.tracer.EndSpan(span, err)

	if err != nil && ctx.Err() != nil {
		m.logger.Debug(ctx, "attempt interrupted by shutdown",
			observe.Field{Key: "attempt", Value: n},
			observe.Field{Key: "error", Value: err},
		)
		return nil, err
	}
	if err != nil {
		m.logger.Error(ctx, fmt.Sprintf("attempt %d failed: %v", n, err),
			observe.Field{Key: "attempt", Value: n},
			observe.Field{Key: "duration_ms", Value: rec.Duration.Milliseconds()},
		)
		return nil, err
	}

	sl.session = session
	return sl, nil
}

func (m *Manager) install(ctx context.Context, sl *slot) {
	id := sl.session.ID()
	m.slot.Store(sl)
	m.setState(ctx, StateConnected)

	m.bus.Emit(ctx, events.Event{
		Topic:     events.TopicConnected,
		Source:    events.SourceManager,
		State:     StateConnected.String(),
		SessionID: id,
	})

	msg := "connected successfully"
	if m.connected {
		msg = "reconnected successfully"
	}
	m.connected = true
	m.logger.Info(ctx, msg, observe.Field{Key: "session", Value: id})

	m.monitor.Start(context.WithoutCancel(ctx))

	for _, note := range sl.markInstalled() {
		m.onNotification(sl, note)
	}
}

// retire stops probing sl, closes it and announces the loss.
func (m *Manager) retire(ctx context.Context, sl *slot, cause error) {
	m.monitor.Stop()
	if !m.slot.CompareAndSwap(sl, nil) {
		return
	}

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.closeTimeout)
	defer cancel()

	id := sl.session.ID()
	if err := sl.session.Close(closeCtx); err != nil {
		m.logger.Warn(ctx, "session close failed",
			observe.Field{Key: "session", Value: id},
			observe.Field{Key: "error", Value: err},
		)
	}
	m.setState(ctx, StateDisconnected)
	m.bus.Emit(ctx, events.Event{
		Topic:     events.TopicDisconnected,
		Source:    events.SourceManager,
		State:     StateDisconnected.String(),
		SessionID: id,
		Cause:     cause,
	})
}

// Run connects and then serves reconnection requests until ctx is done.
//
// A *ConfigError is returned as is. Shutdown returns nil. The session is
// closed before Run returns on every path.
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer m.running.Store(false)
	defer m.release(ctx)

	if err := m.Connect(ctx); err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			return err
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-m.reconnect:
			cur := m.slot.Load()
			if cur == nil || cur.session.ID() != req.sessionID {
				m.logger.Debug(ctx, "stale reconnect request ignored",
					observe.Field{Key: "session", Value: req.sessionID})
				continue
			}

			m.setState(ctx, StateErrored)
			m.logger.Warn(ctx, "session lost, reconnecting",
				observe.Field{Key: "session", Value: req.sessionID},
				observe.Field{Key: "error", Value: req.cause},
			)
			m.retire(ctx, cur, req.cause)

			if err := m.connect(ctx); err != nil {
				if errors.Is(err, ErrInvalidConfig) {
					return err
				}
				return nil
			}
		}
	}
}

func (m *Manager) release(ctx context.Context) {
	if sl := m.slot.Load(); sl != nil {
		m.retire(ctx, sl, nil)
	} else {
		m.monitor.Stop()
	}
}

// Close stops the monitor and closes the installed session. It is meant for
// callers that used Connect without Run.
func (m *Manager) Close(ctx context.Context) error {
	if m.running.Load() {
		return ErrAlreadyRunning
	}
	m.release(ctx)
	return nil
}

func (m *Manager) onNotification(sl *slot, note Notification) {
	ctx := context.Background()
	if sl.hold(note) {
		m.logger.Debug(ctx, "notification held until session is installed",
			observe.Field{Key: "kind", Value: note.Kind.String()})
		return
	}
	if m.slot.Load() != sl {
		m.logger.Debug(ctx, "notification from inactive session ignored",
			observe.Field{Key: "kind", Value: note.Kind.String()})
		return
	}

	id := sl.session.ID()
	topic := events.TopicError
	if note.Kind == NotifyDisconnected {
		topic = events.TopicDisconnected
	}
	m.bus.Emit(ctx, events.Event{
		Topic:     topic,
		Source:    events.SourceSession,
		State:     m.State().String(),
		SessionID: id,
		Cause:     note.Err,
	})

	if sl.failed.CompareAndSwap(false, true) {
		m.requestReconnect(id, note.Err)
	}
}

func (m *Manager) onUnhealthy(sessionID string, cause error) {
	sl := m.slot.Load()
	if sl == nil || sl.session.ID() != sessionID {
		return
	}
	if sl.failed.CompareAndSwap(false, true) {
		m.requestReconnect(sessionID, fmt.Errorf("%w: %w", health.ErrProbeFailed, cause))
	}
}

func (m *Manager) requestReconnect(sessionID string, cause error) {
	select {
	case m.reconnect <- reconnectRequest{sessionID: sessionID, cause: cause}:
	default:
	}
}

func (m *Manager) probeTarget() health.Target {
	sl := m.slot.Load()
	if sl == nil || sl.failed.Load() {
		return nil
	}
	return sl.session
}

func (m *Manager) setState(ctx context.Context, s State) {
	prev := m.state.swap(s)
	if prev == s {
		return
	}
	m.metrics.RecordTransition(ctx, prev.String(), s.String())
	m.logger.Debug(ctx, "state changed",
		observe.Field{Key: "from", Value: prev.String()},
		observe.Field{Key: "to", Value: s.String()},
	)
}

// Name implements health.Checker.
func (m *Manager) Name() string { return "datastore" }

// Check implements health.Checker from the published state.
func (m *Manager) Check(ctx context.Context) health.Result {
	state := m.State()
	details := map[string]any{"state": state.String()}
	if sl := m.slot.Load(); sl != nil {
		details["session"] = sl.session.ID()
	}
	if rec, ok := m.LastAttempt(); ok {
		details["last_attempt"] = rec.Attempt
		if rec.Err != nil {
			details["last_error"] = rec.Err.Error()
		}
	}

	if state == StateConnected {
		return health.Healthy("connected").WithDetails(details)
	}
	return health.Unhealthy(state.String(), ErrNotConnected).WithDetails(details)
}

var _ health.Checker = (*Manager)(nil)
