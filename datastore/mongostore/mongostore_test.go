package mongostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo/description"

	"github.com/girmesh03/Task-Manager-sub001/datastore"
)

func TestRegistered(t *testing.T) {
	for _, scheme := range Schemes {
		d, ok := datastore.DefaultRegistry.Lookup(scheme)
		require.True(t, ok, scheme)
		assert.IsType(t, Dialer{}, d)
	}
}

func TestClientOptions(t *testing.T) {
	cfg := datastore.ConnectionConfig{
		URI:              "mongodb://db:27017/tasks",
		MinPoolSize:      2,
		SelectionTimeout: 5 * time.Second,
	}
	opts := Dialer{AppName: "taskstore"}.ClientOptions(cfg, nil)

	require.NoError(t, opts.Validate())
	require.NotNil(t, opts.MinPoolSize)
	assert.Equal(t, uint64(2), *opts.MinPoolSize)
	require.NotNil(t, opts.ServerSelectionTimeout)
	assert.Equal(t, 5*time.Second, *opts.ServerSelectionTimeout)
	require.NotNil(t, opts.AppName)
	assert.Equal(t, "taskstore", *opts.AppName)
	assert.Nil(t, opts.ServerMonitor)
}

func TestDial_MalformedURIIsConfigError(t *testing.T) {
	cfg := datastore.ConnectionConfig{URI: "mongodb://db:27017/tasks?maxPoolSize=lots"}.WithDefaults()

	_, err := Dialer{}.Dial(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, datastore.ErrInvalidConfig)
}

func TestDial_UnreachableIsRetryable(t *testing.T) {
	cfg := datastore.ConnectionConfig{
		URI:              "mongodb://127.0.0.1:1/tasks?connect=direct",
		SelectionTimeout: 100 * time.Millisecond,
	}.WithDefaults()

	_, err := Dialer{}.Dial(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, datastore.ErrInvalidConfig)
}

func replicaSet(kinds ...description.ServerKind) description.Topology {
	t := description.Topology{Kind: description.ReplicaSetWithPrimary}
	for _, k := range kinds {
		t.Servers = append(t.Servers, description.Server{Kind: k})
	}
	return t
}

func TestServerMonitor_ForwardsTopologyLoss(t *testing.T) {
	var got []datastore.Notification
	mon := serverMonitor(func(n datastore.Notification) { got = append(got, n) })

	cause := errors.New("connection reset")
	lost := replicaSet(description.Unknown, description.RSSecondary)
	lost.Servers[0].LastError = cause

	mon.TopologyDescriptionChanged(&event.TopologyDescriptionChangedEvent{
		PreviousDescription: replicaSet(description.RSPrimary, description.RSSecondary),
		NewDescription:      lost,
	})

	require.Len(t, got, 1)
	assert.Equal(t, datastore.NotifyDisconnected, got[0].Kind)
	assert.ErrorIs(t, got[0].Err, cause)
}

func TestServerMonitor_IgnoresSingleMemberFailures(t *testing.T) {
	var got []datastore.Notification
	mon := serverMonitor(func(n datastore.Notification) { got = append(got, n) })

	assert.Nil(t, mon.ServerHeartbeatFailed)
	assert.Nil(t, mon.ServerDescriptionChanged)

	// A secondary going down keeps the primary.
	mon.TopologyDescriptionChanged(&event.TopologyDescriptionChangedEvent{
		PreviousDescription: replicaSet(description.RSPrimary, description.RSSecondary, description.RSSecondary),
		NewDescription:      replicaSet(description.RSPrimary, description.RSSecondary, description.Unknown),
	})
	// Discovery completing is not a loss.
	mon.TopologyDescriptionChanged(&event.TopologyDescriptionChangedEvent{
		PreviousDescription: replicaSet(description.Unknown),
		NewDescription:      replicaSet(description.RSPrimary),
	})

	assert.Empty(t, got)
}

func TestServerMonitor_NoWritableServerCause(t *testing.T) {
	var got []datastore.Notification
	mon := serverMonitor(func(n datastore.Notification) { got = append(got, n) })

	mon.TopologyDescriptionChanged(&event.TopologyDescriptionChangedEvent{
		PreviousDescription: replicaSet(description.Standalone),
		NewDescription:      replicaSet(description.Unknown),
	})

	require.Len(t, got, 1)
	assert.ErrorIs(t, got[0].Err, errNoWritableServer)
}

func TestServerMonitor_NilNotify(t *testing.T) {
	assert.Nil(t, serverMonitor(nil))
}

func TestDatabaseName(t *testing.T) {
	assert.Equal(t, "tasks", databaseName("mongodb://db:27017/tasks?replicaSet=rs0"))
	assert.Equal(t, "", databaseName("mongodb://db:27017"))
}
