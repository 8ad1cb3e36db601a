package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records datastore connection telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordAttempt records one connection attempt against a datastore
	// identified by its URI scheme.
	RecordAttempt(ctx context.Context, scheme string, attempt int, duration time.Duration, err error)

	// RecordProbe records one liveness probe.
	RecordProbe(ctx context.Context, duration time.Duration, err error)

	// RecordTransition records a connection state change.
	RecordTransition(ctx context.Context, from, to string)
}

type metricsImpl struct {
	attempts    metric.Int64Counter
	failures    metric.Int64Counter
	attemptHist metric.Float64Histogram
	probes      metric.Int64Counter
	probeFails  metric.Int64Counter
	probeHist   metric.Float64Histogram
	transitions metric.Int64Counter
}

// NewMetrics registers the connection instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.attempts, err = meter.Int64Counter(
		"datastore.connect.attempts",
		metric.WithDescription("Connection attempts"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}
	if m.failures, err = meter.Int64Counter(
		"datastore.connect.failures",
		metric.WithDescription("Failed connection attempts"),
		metric.WithUnit("{attempt}"),
	); err != nil {
		return nil, err
	}
	if m.attemptHist, err = meter.Float64Histogram(
		"datastore.connect.duration_ms",
		metric.WithDescription("Connection attempt duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.probes, err = meter.Int64Counter(
		"datastore.probe.total",
		metric.WithDescription("Liveness probes"),
		metric.WithUnit("{probe}"),
	); err != nil {
		return nil, err
	}
	if m.probeFails, err = meter.Int64Counter(
		"datastore.probe.failures",
		metric.WithDescription("Failed liveness probes"),
		metric.WithUnit("{probe}"),
	); err != nil {
		return nil, err
	}
	if m.probeHist, err = meter.Float64Histogram(
		"datastore.probe.duration_ms",
		metric.WithDescription("Liveness probe round trip in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.transitions, err = meter.Int64Counter(
		"datastore.state.transitions",
		metric.WithDescription("Connection state changes"),
		metric.WithUnit("{transition}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordAttempt(ctx context.Context, scheme string, attempt int, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("datastore.scheme", scheme),
		attribute.Bool("datastore.retry", attempt > 1),
	)
	m.attempts.Add(ctx, 1, opt)
	m.attemptHist.Record(ctx, float64(duration.Microseconds())/1000.0, opt)
	if err != nil {
		m.failures.Add(ctx, 1, opt)
	}
}

func (m *metricsImpl) RecordProbe(ctx context.Context, duration time.Duration, err error) {
	m.probes.Add(ctx, 1)
	m.probeHist.Record(ctx, float64(duration.Microseconds())/1000.0)
	if err != nil {
		m.probeFails.Add(ctx, 1)
	}
}

func (m *metricsImpl) RecordTransition(ctx context.Context, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state.from", from),
		attribute.String("state.to", to),
	))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

type nopMetrics struct{}

func (nopMetrics) RecordAttempt(context.Context, string, int, time.Duration, error) {}
func (nopMetrics) RecordProbe(context.Context, time.Duration, error)               {}
func (nopMetrics) RecordTransition(context.Context, string, string)                {}
