package redisstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/girmesh03/Task-Manager-sub001/datastore"
)

func TestRegistered(t *testing.T) {
	for _, scheme := range Schemes {
		_, ok := datastore.DefaultRegistry.Lookup(scheme)
		assert.True(t, ok, scheme)
	}
}

func TestOptions(t *testing.T) {
	opt, err := Options(datastore.ConnectionConfig{
		URI:              "redis://:secret@cache:6380/3",
		MinPoolSize:      2,
		SelectionTimeout: 4 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", opt.Addr)
	assert.Equal(t, 3, opt.DB)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.MinIdleConns)
	assert.Equal(t, 4*time.Second, opt.DialTimeout)
}

func TestOptions_MalformedURI(t *testing.T) {
	_, err := Options(datastore.ConnectionConfig{URI: "redis://cache:6379/not-a-db"})
	assert.ErrorIs(t, err, datastore.ErrInvalidConfig)
}

func TestDial_UnreachableNotifiesAndIsRetryable(t *testing.T) {
	var mu sync.Mutex
	var notes []datastore.Notification
	notify := func(n datastore.Notification) {
		mu.Lock()
		notes = append(notes, n)
		mu.Unlock()
	}

	cfg := datastore.ConnectionConfig{
		URI:              "redis://127.0.0.1:1/0",
		SelectionTimeout: 500 * time.Millisecond,
	}.WithDefaults()

	_, err := Dialer{}.Dial(context.Background(), cfg, notify)
	require.Error(t, err)
	assert.NotErrorIs(t, err, datastore.ErrInvalidConfig)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, notes)
	assert.Equal(t, datastore.NotifyError, notes[0].Kind)
}
