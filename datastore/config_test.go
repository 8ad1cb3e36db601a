package datastore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionConfig_WithDefaults(t *testing.T) {
	cfg := ConnectionConfig{URI: "  mongodb://db:27017/tasks  "}.WithDefaults()

	assert.Equal(t, "mongodb://db:27017/tasks", cfg.URI)
	assert.Equal(t, uint64(DefaultMinPoolSize), cfg.MinPoolSize)
	assert.Equal(t, DefaultSelectionTimeout, cfg.SelectionTimeout)

	custom := ConnectionConfig{URI: "x://y", MinPoolSize: 10, SelectionTimeout: time.Second}.WithDefaults()
	assert.Equal(t, uint64(10), custom.MinPoolSize)
	assert.Equal(t, time.Second, custom.SelectionTimeout)
}

func TestConnectionConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ConnectionConfig
		setting string
		cause   error
	}{
		{name: "valid", cfg: testConfig},
		{name: "empty uri", cfg: ConnectionConfig{}, setting: SettingURI, cause: ErrMissingEndpoint},
		{name: "blank uri", cfg: ConnectionConfig{URI: "   "}, setting: SettingURI, cause: ErrMissingEndpoint},
		{name: "no scheme", cfg: ConnectionConfig{URI: "db.internal/tasks"}, setting: SettingURI, cause: ErrInvalidURI},
		{name: "unparseable", cfg: ConnectionConfig{URI: "mongodb://%zz"}, setting: SettingURI, cause: ErrInvalidURI},
		{
			name:    "negative timeout",
			cfg:     ConnectionConfig{URI: "mongodb://db", SelectionTimeout: -time.Second},
			setting: SettingSelectionTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.setting == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.setting, cfgErr.Setting)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

func TestConfigError_Message(t *testing.T) {
	missing := &ConfigError{Setting: SettingURI, Err: ErrMissingEndpoint}
	assert.Equal(t, "missing required setting: datastore.uri", missing.Error())

	other := &ConfigError{Setting: SettingSelectionTimeout, Err: errors.New("must not be negative")}
	assert.Equal(t, "invalid setting datastore.selection_timeout: must not be negative", other.Error())
}

func TestConnectionConfig_Scheme(t *testing.T) {
	assert.Equal(t, "mongodb+srv", ConnectionConfig{URI: "MongoDB+SRV://cluster/tasks"}.Scheme())
	assert.Equal(t, "store", testConfig.Scheme())
	assert.Equal(t, "", ConnectionConfig{URI: "%zz"}.Scheme())
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateDisconnected: "disconnected",
		StateConnecting:   "connecting",
		StateConnected:    "connected",
		StateErrored:      "errored",
		StateAborted:      "aborted",
		State(42):         "unknown",
	}
	for s, want := range tests {
		assert.Equal(t, want, s.String())
	}
}
