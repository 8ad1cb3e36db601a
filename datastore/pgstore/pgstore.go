// Package pgstore dials PostgreSQL through a pgx connection pool.
//
// Importing the package registers the postgres and postgresql schemes on
// datastore.DefaultRegistry. pgx reports no asynchronous pool failures, so
// liveness relies on the manager's probe.
package pgstore

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/girmesh03/Task-Manager-sub001/datastore"
)

// Schemes handled by Dialer.
var Schemes = []string{"postgres", "postgresql"}

func init() {
	datastore.Register(Dialer{}, Schemes...)
}

// Dialer opens a pgxpool.Pool.
type Dialer struct{}

// PoolConfig translates cfg into a pool configuration.
func PoolConfig(cfg datastore.ConnectionConfig) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URI)
	if err != nil {
		return nil, &datastore.ConfigError{Setting: datastore.SettingURI, Err: err}
	}

	minConns := cfg.MinPoolSize
	if minConns > math.MaxInt32 {
		minConns = math.MaxInt32
	}
	pcfg.MinConns = int32(minConns)
	if pcfg.MaxConns < pcfg.MinConns {
		pcfg.MaxConns = pcfg.MinConns
	}
	if cfg.SelectionTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.SelectionTimeout
	}
	return pcfg, nil
}

// Dial creates the pool and pings one connection within the selection timeout.
func (Dialer) Dial(ctx context.Context, cfg datastore.ConnectionConfig, _ datastore.Notify) (datastore.Session, error) {
	pcfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.SelectionTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Session{id: datastore.NewSessionID(), pool: pool}, nil
}

// Session wraps a verified pool.
type Session struct {
	id   string
	pool *pgxpool.Pool
}

func (s *Session) ID() string                     { return s.id }
func (s *Session) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// Close waits for acquired connections to be released.
func (s *Session) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pool.Close()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pool exposes the pool for queries.
func (s *Session) Pool() *pgxpool.Pool { return s.pool }

var _ datastore.Dialer = Dialer{}
