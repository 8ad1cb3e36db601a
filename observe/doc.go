// Package observe provides the logging, tracing and metrics primitives used
// by the datastore connection manager.
//
// Logging is backed by zap and emits one JSON object per line. Fields named
// like credentials are redacted, and RedactURI strips passwords from
// connection strings before they reach a log line.
//
// NewObserver wires OpenTelemetry providers from Config. Metrics and Tracer
// wrap a meter and tracer with the instruments the manager records:
// connection attempts, liveness probes and state transitions.
package observe
