// Package redisstore dials Redis with go-redis.
//
// Importing the package registers the redis and rediss schemes on
// datastore.DefaultRegistry.
package redisstore

import (
	"context"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/girmesh03/Task-Manager-sub001/datastore"
)

// Schemes handled by Dialer.
var Schemes = []string{"redis", "rediss"}

func init() {
	datastore.Register(Dialer{}, Schemes...)
}

// Dialer opens a go-redis client.
type Dialer struct{}

// Options translates cfg into client options.
func Options(cfg datastore.ConnectionConfig) (*redis.Options, error) {
	opt, err := redis.ParseURL(cfg.URI)
	if err != nil {
		return nil, &datastore.ConfigError{Setting: datastore.SettingURI, Err: err}
	}
	opt.MinIdleConns = int(cfg.MinPoolSize)
	if cfg.SelectionTimeout > 0 {
		opt.DialTimeout = cfg.SelectionTimeout
	}
	return opt, nil
}

// Dial creates the client and pings it. Later dial failures inside the
// client's pool are reported through notify.
func (Dialer) Dial(ctx context.Context, cfg datastore.ConnectionConfig, notify datastore.Notify) (datastore.Session, error) {
	opt, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if notify != nil {
		client.AddHook(notifyHook{notify: notify})
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.SelectionTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Session{id: datastore.NewSessionID(), client: client}, nil
}

// notifyHook reports failed pool dials.
type notifyHook struct {
	notify datastore.Notify
}

func (h notifyHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.notify(datastore.Notification{Kind: datastore.NotifyError, Err: err})
		}
		return conn, err
	}
}

func (h notifyHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return next
}

func (h notifyHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

// Session wraps a verified client.
type Session struct {
	id     string
	client *redis.Client
}

func (s *Session) ID() string { return s.id }

func (s *Session) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Session) Close(context.Context) error {
	return s.client.Close()
}

// Client exposes the go-redis client.
func (s *Session) Client() *redis.Client { return s.client }

var _ datastore.Dialer = Dialer{}
