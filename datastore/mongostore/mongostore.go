// Package mongostore dials MongoDB for the datastore manager.
//
// Importing the package registers the mongodb and mongodb+srv schemes on
// datastore.DefaultRegistry.
package mongostore

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/description"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/girmesh03/Task-Manager-sub001/datastore"
)

// Schemes handled by Dialer.
var Schemes = []string{"mongodb", "mongodb+srv"}

func init() {
	datastore.Register(Dialer{}, Schemes...)
}

var errNoWritableServer = errors.New("mongostore: no writable server in topology")

// disconnectTimeout bounds cleanup after a failed ping.
const disconnectTimeout = 5 * time.Second

// Dialer connects with the official MongoDB driver.
type Dialer struct {
	// AppName is reported to the server in the handshake.
	AppName string
}

// ClientOptions translates cfg into driver options. Server events are
// forwarded to notify.
func (d Dialer) ClientOptions(cfg datastore.ConnectionConfig, notify datastore.Notify) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMinPoolSize(cfg.MinPoolSize).
		SetServerSelectionTimeout(cfg.SelectionTimeout).
		SetServerMonitor(serverMonitor(notify))
	if d.AppName != "" {
		opts.SetAppName(d.AppName)
	}
	return opts
}

// Dial creates a client and verifies it with a primary ping.
func (d Dialer) Dial(ctx context.Context, cfg datastore.ConnectionConfig, notify datastore.Notify) (datastore.Session, error) {
	opts := d.ClientOptions(cfg, notify)
	if err := opts.Validate(); err != nil {
		return nil, &datastore.ConfigError{Setting: datastore.SettingURI, Err: err}
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
		defer cancel()
		_ = client.Disconnect(dctx)
		return nil, err
	}

	return &Session{
		id:       datastore.NewSessionID(),
		client:   client,
		database: databaseName(cfg.URI),
	}, nil
}

// serverMonitor reports the loss of the whole deployment, not of single
// members: a heartbeat failure or an unhealthy secondary leaves the client
// usable, so only a topology that had a writable server and now has none is
// forwarded as NotifyDisconnected.
func serverMonitor(notify datastore.Notify) *event.ServerMonitor {
	if notify == nil {
		return nil
	}
	return &event.ServerMonitor{
		TopologyDescriptionChanged: func(e *event.TopologyDescriptionChangedEvent) {
			if writable(e.PreviousDescription) && !writable(e.NewDescription) {
				notify(datastore.Notification{Kind: datastore.NotifyDisconnected, Err: topologyError(e.NewDescription)})
			}
		},
	}
}

func writable(t description.Topology) bool {
	for _, s := range t.Servers {
		switch s.Kind {
		case description.Standalone, description.RSPrimary, description.Mongos, description.LoadBalancer:
			return true
		}
	}
	return false
}

func topologyError(t description.Topology) error {
	for _, s := range t.Servers {
		if s.LastError != nil {
			return s.LastError
		}
	}
	return errNoWritableServer
}

func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// Session wraps a connected *mongo.Client.
type Session struct {
	id       string
	client   *mongo.Client
	database string
}

func (s *Session) ID() string { return s.id }

// Ping asks the primary for a round trip.
func (s *Session) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client and its pool.
func (s *Session) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Client exposes the driver client for queries.
func (s *Session) Client() *mongo.Client { return s.client }

// Database returns the database named in the URI path.
func (s *Session) Database(opts ...*options.DatabaseOptions) *mongo.Database {
	return s.client.Database(s.database, opts...)
}

var _ datastore.Dialer = Dialer{}
