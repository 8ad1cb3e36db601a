package exporters

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestNewTracingExporter_UnknownName(t *testing.T) {
	_, err := NewTracingExporter(context.Background(), "jaeger", Options{})
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("err = %v, want ErrUnknownExporter", err)
	}
}

func TestNewTracingExporter_Stdout(t *testing.T) {
	exp, err := NewTracingExporter(context.Background(), "stdout", Options{Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("NewTracingExporter(stdout) error = %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
	_ = exp.Shutdown(context.Background())
}

func TestNewTracingExporter_OtlpRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	_, err := NewTracingExporter(context.Background(), "otlp", Options{})
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("err = %v, want ErrEndpointNotConfigured", err)
	}
}

func TestNewTracingExporter_OtlpExplicitEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	exp, err := NewTracingExporter(context.Background(), "otlp", Options{Endpoint: "localhost:4317", Insecure: true})
	if err != nil {
		t.Fatalf("NewTracingExporter(otlp) error = %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

func TestNewTracingExporter_OtlpEnvEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4317")

	exp, err := NewTracingExporter(context.Background(), "otlp", Options{})
	if err != nil {
		t.Fatalf("NewTracingExporter(otlp) error = %v", err)
	}
	if exp == nil {
		t.Fatal("expected non-nil exporter")
	}
}

func TestNewMetricsReader_Stdout(t *testing.T) {
	reader, err := NewMetricsReader(context.Background(), "stdout", Options{Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("NewMetricsReader(stdout) error = %v", err)
	}
	if reader == nil {
		t.Fatal("expected non-nil reader")
	}
}

func TestNewMetricsReader_NoneIsNil(t *testing.T) {
	for _, name := range []string{"none", ""} {
		reader, err := NewMetricsReader(context.Background(), name, Options{})
		if err != nil {
			t.Fatalf("NewMetricsReader(%q) error = %v", name, err)
		}
		if reader != nil {
			t.Errorf("NewMetricsReader(%q) = %T, want nil", name, reader)
		}
	}
}

func TestNewMetricsReader_OtlpRequiresEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	_, err := NewMetricsReader(context.Background(), "otlp", Options{})
	if !errors.Is(err, ErrEndpointNotConfigured) {
		t.Fatalf("err = %v, want ErrEndpointNotConfigured", err)
	}
}

func TestNewMetricsReader_UnknownName(t *testing.T) {
	_, err := NewMetricsReader(context.Background(), "statsd", Options{})
	if !errors.Is(err, ErrUnknownExporter) {
		t.Fatalf("err = %v, want ErrUnknownExporter", err)
	}
}
