package datastore

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig marks configuration faults. They are fatal and never retried.
	ErrInvalidConfig = errors.New("datastore: invalid configuration")

	// ErrMissingEndpoint indicates the endpoint URI is empty.
	ErrMissingEndpoint = errors.New("datastore: endpoint uri is required")

	// ErrInvalidURI indicates the endpoint URI cannot be parsed.
	ErrInvalidURI = errors.New("datastore: endpoint uri is malformed")

	// ErrUnknownScheme indicates no dialer is registered for the URI scheme.
	ErrUnknownScheme = errors.New("datastore: no dialer for uri scheme")

	// ErrNotConnected is returned by Session before the first connection.
	ErrNotConnected = errors.New("datastore: not connected")

	// ErrAlreadyRunning is returned when Run is called twice concurrently.
	ErrAlreadyRunning = errors.New("datastore: manager already running")
)

// ConfigError names the setting that made a configuration invalid.
// It matches ErrInvalidConfig and its cause with errors.Is.
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	if errors.Is(e.Err, ErrMissingEndpoint) {
		return "missing required setting: " + e.Setting
	}
	return fmt.Sprintf("invalid setting %s: %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}
