package pgstore

import (
	"context"
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

func TestPoolConfig(t *testing.T) {
	pcfg, err := PoolConfig(datastore.ConnectionConfig{
		URI:              "postgres://app:secret@db:5432/tasks?sslmode=disable&pool_max_conns=1",
		MinPoolSize:      4,
		SelectionTimeout: 3 * time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(4), pcfg.MinConns)
	assert.Equal(t, int32(4), pcfg.MaxConns)
	assert.Equal(t, 3*time.Second, pcfg.ConnConfig.ConnectTimeout)
	assert.Equal(t, "tasks", pcfg.ConnConfig.Database)
}

func TestPoolConfig_MalformedURI(t *testing.T) {
	_, err := PoolConfig(datastore.ConnectionConfig{URI: "postgres://db:notaport/tasks"})
	assert.ErrorIs(t, err, datastore.ErrInvalidConfig)
}

func TestDial_UnreachableIsRetryable(t *testing.T) {
	cfg := datastore.ConnectionConfig{
		URI:              "postgres://app@127.0.0.1:1/tasks?sslmode=disable",
		SelectionTimeout: 200 * time.Millisecond,
	}.WithDefaults()

	_, err := Dialer{}.Dial(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, datastore.ErrInvalidConfig)
}
