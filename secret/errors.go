package secret

import "errors"

var (
	// ErrProviderNotFound is returned for a reference to an unregistered provider.
	ErrProviderNotFound = errors.New("secret: provider not registered")

	// ErrEmptySecret is returned in strict mode when a provider yields "".
	ErrEmptySecret = errors.New("secret: empty value")

	// ErrNotFound is returned by providers when a reference does not exist.
	ErrNotFound = errors.New("secret: not found")

	// ErrMissingEnv is returned when ${VAR} names an unset variable.
	ErrMissingEnv = errors.New("secret: missing environment variables")
)
