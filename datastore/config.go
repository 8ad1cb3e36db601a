package datastore

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Setting names as they appear in configuration files.
const (
	SettingURI              = "datastore.uri"
	SettingMinPoolSize      = "datastore.min_pool_size"
	SettingSelectionTimeout = "datastore.selection_timeout"
)

// Defaults applied by WithDefaults.
const (
	DefaultMinPoolSize      = 2
	DefaultSelectionTimeout = 5 * time.Second
)

// ConnectionConfig describes how to reach the datastore. It is read once at
// startup and not modified afterwards.
type ConnectionConfig struct {
	URI              string        `koanf:"uri"`
	MinPoolSize      uint64        `koanf:"min_pool_size"`
	SelectionTimeout time.Duration `koanf:"selection_timeout"`
}

// WithDefaults fills zero-valued pool and timeout settings. The URI has no
// default.
func (c ConnectionConfig) WithDefaults() ConnectionConfig {
	c.URI = strings.TrimSpace(c.URI)
	if c.MinPoolSize == 0 {
		c.MinPoolSize = DefaultMinPoolSize
	}
	if c.SelectionTimeout <= 0 {
		c.SelectionTimeout = DefaultSelectionTimeout
	}
	return c
}

// Validate reports a *ConfigError for an unusable configuration.
func (c ConnectionConfig) Validate() error {
	uri := strings.TrimSpace(c.URI)
	if uri == "" {
		return &ConfigError{Setting: SettingURI, Err: ErrMissingEndpoint}
	}
	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" {
		return &ConfigError{Setting: SettingURI, Err: ErrInvalidURI}
	}
	if c.SelectionTimeout < 0 {
		return &ConfigError{
			Setting: SettingSelectionTimeout,
			Err:     fmt.Errorf("must not be negative, got %s", c.SelectionTimeout),
		}
	}
	return nil
}

// Scheme returns the lower-cased URI scheme, or "" when the URI does not parse.
func (c ConnectionConfig) Scheme() string {
	u, err := url.Parse(strings.TrimSpace(c.URI))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
