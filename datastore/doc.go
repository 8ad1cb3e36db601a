// Package datastore manages the single datastore session of the task
// manager.
//
// A Manager validates its ConnectionConfig, then dials through a Dialer
// until a session is verified, waiting a linear backoff between failures.
// Missing or malformed configuration is fatal and reported as a
// *ConfigError; connectivity failures are retried without limit.
//
// Once connected, a health.Monitor probes the session. Sustained probe
// failures and asynchronous driver notifications both lead the Manager to
// retire the session and start a fresh connection cycle. State changes are
// published on an events.Bus:
//
//	m := datastore.New(cfg, dialer, datastore.WithLogger(logger))
//	m.Events().Subscribe(events.TopicConnected, onConnected)
//	if err := m.Run(ctx); errors.Is(err, datastore.ErrInvalidConfig) {
//	    os.Exit(1)
//	}
//
// Driver packages (mongostore, pgstore, redisstore, sqlstore) register
// their dialers by URI scheme on DefaultRegistry.
package datastore
