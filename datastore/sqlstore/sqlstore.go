// Package sqlstore opens an embedded SQLite database through database/sql.
//
// It registers the sqlite and file schemes. "sqlite:///var/lib/tasks.db"
// opens the file at the URI path; "file:tasks.db?cache=shared" is passed to
// the driver unchanged. The embedded store suits single-node deployments and
// tests.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/girmesh03/Task-Manager-sub001/datastore"
)

// Schemes handled by Dialer.
var Schemes = []string{"sqlite", "file"}

const driverName = "sqlite3"

func init() {
	datastore.Register(Dialer{}, Schemes...)
}

// Dialer opens a *sql.DB backed by go-sqlite3.
type Dialer struct{}

// DSN converts a datastore URI into a go-sqlite3 data source name.
func DSN(uri string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", &datastore.ConfigError{Setting: datastore.SettingURI, Err: err}
	}
	switch strings.ToLower(u.Scheme) {
	case "file":
		return uri, nil
	case "sqlite":
		path := u.Path
		if u.Host != "" {
			path = u.Host + path
		}
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return "", &datastore.ConfigError{
				Setting: datastore.SettingURI,
				Err:     errors.New("sqlite uri has no database path"),
			}
		}
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
		return "file:" + path, nil
	default:
		return "", &datastore.ConfigError{Setting: datastore.SettingURI, Err: datastore.ErrUnknownScheme}
	}
}

// Dial opens the database, sizes the idle pool and pings it.
func (Dialer) Dial(ctx context.Context, cfg datastore.ConnectionConfig, _ datastore.Notify) (datastore.Session, error) {
	dsn, err := DSN(cfg.URI)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, &datastore.ConfigError{Setting: datastore.SettingURI, Err: err}
	}
	db.SetMaxIdleConns(int(cfg.MinPoolSize))

	pingCtx, cancel := context.WithTimeout(ctx, cfg.SelectionTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Session{id: datastore.NewSessionID(), db: db}, nil
}

// Session wraps an open database handle.
type Session struct {
	id string
	db *sql.DB
}

func (s *Session) ID() string                     { return s.id }
func (s *Session) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *Session) Close(context.Context) error    { return s.db.Close() }

// DB exposes the handle for queries.
func (s *Session) DB() *sql.DB { return s.db }

var _ datastore.Dialer = Dialer{}
