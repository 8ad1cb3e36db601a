package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/girmesh03/Task-Manager-sub001/resilience"
	"github.com/girmesh03/Task-Manager-sub001/secret"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)

	assert.Empty(t, cfg.Datastore.URI)
	assert.Equal(t, uint64(2), cfg.Datastore.MinPoolSize)
	assert.Equal(t, 5*time.Second, cfg.Datastore.SelectionTimeout)
	assert.Equal(t, time.Second, cfg.Backoff.Base)
	assert.Equal(t, 30*time.Second, cfg.Backoff.Max)
	assert.Equal(t, 30*time.Second, cfg.Health.Interval)
	assert.Equal(t, 3, cfg.Health.FailureThreshold)
	assert.Equal(t, "taskstore", cfg.Observe.ServiceName)
	assert.Equal(t, ":9464", cfg.Admin.Addr)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 10*time.Second, cfg.ShutdownGrace)
	require.NoError(t, cfg.Validate())
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "taskstore.yaml", `
datastore:
  uri: mongodb://db:27017/tasks
  min_pool_size: 8
  selection_timeout: 2s
health:
  interval: 10s
  failure_threshold: 5
observe:
  logging:
    level: debug
kafka:
  brokers: [k1:9092, k2:9092]
`)

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017/tasks", cfg.Datastore.URI)
	assert.Equal(t, uint64(8), cfg.Datastore.MinPoolSize)
	assert.Equal(t, 2*time.Second, cfg.Datastore.SelectionTimeout)
	assert.Equal(t, 10*time.Second, cfg.Health.Interval)
	assert.Equal(t, 5, cfg.Health.FailureThreshold)
	assert.Equal(t, "debug", cfg.Observe.Logging.Level)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeFile(t, "taskstore.toml", `
shutdown_grace = "3s"

[datastore]
uri = "postgres://app@db:5432/tasks"

[backoff]
strategy = "constant"
base = "250ms"
`)

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres://app@db:5432/tasks", cfg.Datastore.URI)
	assert.Equal(t, 3*time.Second, cfg.ShutdownGrace)

	b, err := cfg.BackoffPolicy()
	require.NoError(t, err)
	assert.Equal(t, resilience.BackoffConstant, b.Strategy)
	assert.Equal(t, 250*time.Millisecond, b.Delay(4))
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "taskstore.yaml", "datastore:\n  uri: mongodb://file/tasks\n")
	t.Setenv("TASKSTORE_DATASTORE__URI", "mongodb://env/tasks")
	t.Setenv("TASKSTORE_DATASTORE__MIN_POOL_SIZE", "6")
	t.Setenv("TASKSTORE_KAFKA__BROKERS", "a:9092,b:9092")
	t.Setenv("TASKSTORE_SHUTDOWN_GRACE", "1m")

	cfg, err := Load(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://env/tasks", cfg.Datastore.URI)
	assert.Equal(t, uint64(6), cfg.Datastore.MinPoolSize)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Minute, cfg.ShutdownGrace)
}

func TestLoad_ResolvesSecrets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uri"), []byte("mongodb://app:pw@db/tasks\n"), 0o600))
	t.Setenv("TASKSTORE_TEST_SIGNING", "s3cret")

	path := writeFile(t, "taskstore.yaml", `
datastore:
  uri: secretref:file:uri
admin:
  jwt_secret: ${TASKSTORE_TEST_SIGNING}
`)

	resolver := secret.NewResolver(true, secret.FileProvider{Dir: dir}, secret.EnvProvider{})
	cfg, err := Load(context.Background(), path, resolver)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://app:pw@db/tasks", cfg.Datastore.URI)
	assert.Equal(t, "s3cret", cfg.Admin.JWTSecret)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), nil)
		assert.ErrorIs(t, err, ErrLoad)
	})

	t.Run("unresolvable secret", func(t *testing.T) {
		path := writeFile(t, "taskstore.yaml", "datastore:\n  uri: secretref:vault:db\n")
		_, err := Load(context.Background(), path, nil)
		assert.ErrorIs(t, err, ErrLoad)
		assert.ErrorIs(t, err, secret.ErrProviderNotFound)
	})
}

func TestValidate(t *testing.T) {
	cfg, err := Load(context.Background(), "", nil)
	require.NoError(t, err)

	cfg.Backoff.Strategy = "fibonacci"
	assert.Error(t, cfg.Validate())

	cfg.Backoff.Strategy = "linear"
	cfg.Observe.Logging.Level = "loud"
	assert.Error(t, cfg.Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "datastore.min_pool_size", envKey("TASKSTORE_DATASTORE__MIN_POOL_SIZE"))
	assert.Equal(t, "shutdown_grace", envKey("TASKSTORE_SHUTDOWN_GRACE"))
	assert.Equal(t, "observe.tracing.sample_pct", envKey("TASKSTORE_OBSERVE__TRACING__SAMPLE_PCT"))
}
