// Package health attests that the datastore session is alive.
//
// Monitor probes the current session on a fixed interval, keeps a bounded
// Window of results, publishes failures on the lifecycle bus and calls an
// OnUnhealthy hook once when failures pile up. It never touches connection
// state; reconnecting is the caller's job.
//
// Aggregator combines Checkers for the /healthz, /readyz and /health
// endpoints served by RegisterRoutes.
package health
