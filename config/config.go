// Package config loads the taskstore process configuration.
//
// Sources are layered, later ones winning: built-in defaults, an optional
// YAML or TOML file, then TASKSTORE_* environment variables. In variable
// names a double underscore separates sections and a single underscore is
// kept, so TASKSTORE_DATASTORE__MIN_POOL_SIZE sets datastore.min_pool_size.
package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/girmesh03/Task-Manager-sub001/datastore"
	"github.com/girmesh03/Task-Manager-sub001/health"
	"github.com/girmesh03/Task-Manager-sub001/observe"
	"github.com/girmesh03/Task-Manager-sub001/resilience"
	"github.com/girmesh03/Task-Manager-sub001/secret"
)

// EnvPrefix marks environment variables read by Load.
const EnvPrefix = "TASKSTORE_"

// ErrLoad wraps every failure to read or decode a source.
var ErrLoad = errors.New("config: load failed")

// Config is the full process configuration.
type Config struct {
	Datastore     datastore.ConnectionConfig `koanf:"datastore"`
	Backoff       BackoffConfig              `koanf:"backoff"`
	Health        health.MonitorConfig       `koanf:"health"`
	Observe       observe.Config             `koanf:"observe"`
	Admin         AdminConfig                `koanf:"admin"`
	Kafka         KafkaConfig                `koanf:"kafka"`
	ShutdownGrace time.Duration              `koanf:"shutdown_grace"`
}

// BackoffConfig selects the delay policy between connection attempts.
type BackoffConfig struct {
	Strategy   string        `koanf:"strategy"`
	Base       time.Duration `koanf:"base"`
	Max        time.Duration `koanf:"max"`
	Multiplier float64       `koanf:"multiplier"`
}

// AdminConfig configures the health and metrics HTTP server.
type AdminConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
	// JWTSecret guards the detailed health endpoints. Empty leaves them open.
	JWTSecret string `koanf:"jwt_secret"`
}

// KafkaConfig enables forwarding lifecycle events to Kafka.
type KafkaConfig struct {
	Brokers []string `koanf:"brokers"`
	Topic   string   `koanf:"topic"`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// Defaults returns the built-in values as a flat koanf map.
func Defaults() map[string]any {
	return map[string]any{
		"datastore.min_pool_size":     datastore.DefaultMinPoolSize,
		"datastore.selection_timeout": datastore.DefaultSelectionTimeout.String(),

		"backoff.strategy":   resilience.BackoffLinear.String(),
		"backoff.base":       resilience.DefaultBackoffBase.String(),
		"backoff.max":        resilience.DefaultBackoffMax.String(),
		"backoff.multiplier": resilience.DefaultBackoffMultiplier,

		"health.interval":          health.DefaultProbeInterval.String(),
		"health.timeout":           health.DefaultProbeTimeout.String(),
		"health.failure_threshold": health.DefaultFailureThreshold,
		"health.history_size":      health.DefaultHistorySize,

		"observe.service_name":       "taskstore",
		"observe.logging.enabled":    true,
		"observe.logging.level":      "info",
		"observe.logging.format":     "json",
		"observe.tracing.enabled":    false,
		"observe.tracing.exporter":   "none",
		"observe.tracing.sample_pct": 1.0,
		"observe.metrics.enabled":    true,
		"observe.metrics.exporter":   "prometheus",

		"admin.enabled": true,
		"admin.addr":    ":9464",

		"kafka.topic": "taskstore.lifecycle",

		"shutdown_grace": "10s",
	}
}

// Load reads defaults, the file at path (skipped when empty) and the
// environment, then resolves ${VAR} and secretref: values.
//
// The datastore URI is not checked here; an empty or malformed URI is
// reported by the connection manager on its fatal path.
func Load(ctx context.Context, path string, resolver *secret.Resolver) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("%w: defaults: %w", ErrLoad, err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("%w: file %s: %w", ErrLoad, path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: environment: %w", ErrLoad, err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			TagName:          "koanf",
			WeaklyTypedInput: true,
			Result:           cfg,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrLoad, err)
	}

	if resolver == nil {
		resolver = secret.DefaultResolver()
	}
	if err := resolver.ResolveInPlace(ctx, map[string]*string{
		datastore.SettingURI: &cfg.Datastore.URI,
		"admin.jwt_secret":   &cfg.Admin.JWTSecret,
	}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	return cfg, nil
}

// envKey maps TASKSTORE_DATASTORE__MIN_POOL_SIZE to datastore.min_pool_size.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Parser()
	default:
		return yaml.Parser()
	}
}

// BackoffPolicy converts the backoff section.
func (c *Config) BackoffPolicy() (resilience.Backoff, error) {
	strategy, ok := resilience.ParseBackoffStrategy(c.Backoff.Strategy)
	if !ok {
		return resilience.Backoff{}, fmt.Errorf("invalid setting backoff.strategy: %q", c.Backoff.Strategy)
	}
	return resilience.Backoff{
		Strategy:   strategy,
		Base:       c.Backoff.Base,
		Max:        c.Backoff.Max,
		Multiplier: c.Backoff.Multiplier,
	}, nil
}

// Validate checks the sections that are fatal before the manager starts.
// The datastore section is left to the manager.
func (c *Config) Validate() error {
	if _, err := c.BackoffPolicy(); err != nil {
		return err
	}
	if c.ShutdownGrace < 0 {
		return fmt.Errorf("invalid setting shutdown_grace: must not be negative")
	}
	return c.Observe.Validate()
}
