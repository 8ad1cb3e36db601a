// Package adminserver serves the taskstore health and metrics endpoints.
package adminserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/girmesh03/Task-Manager-sub001/auth"
	"github.com/girmesh03/Task-Manager-sub001/health"
	"github.com/girmesh03/Task-Manager-sub001/observe"
)

// DefaultShutdownTimeout bounds a graceful stop.
const DefaultShutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	Addr string

	// Verifier guards /health and /health/:name. Nil leaves them open.
	Verifier *auth.Verifier

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// History supplies the probe window shown by /health.
	History func() []health.ProbeResult

	ShutdownTimeout time.Duration
}

// Server is the admin HTTP server.
type Server struct {
	cfg        Config
	engine     *gin.Engine
	httpServer *http.Server
	logger     observe.Logger
}

// New builds the router. Checks registered on agg decide readiness.
func New(cfg Config, agg *health.Aggregator, logger observe.Logger) *Server {
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), accessLog(logger))

	var guard []gin.HandlerFunc
	if cfg.Verifier != nil {
		guard = append(guard, auth.Middleware(cfg.Verifier))
	}
	health.RegisterRoutes(engine, agg, cfg.History, guard...)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})))

	return &Server{
		cfg:    cfg,
		engine: engine,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("admin server listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info(ctx, "admin server listening", observe.Field{Key: "addr", Value: ln.Addr().String()})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin server shutdown: %w", err)
	}
	s.logger.Debug(ctx, "admin server stopped")
	return nil
}

func accessLog(logger observe.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug(c.Request.Context(), "admin request",
			observe.Field{Key: "method", Value: c.Request.Method},
			observe.Field{Key: "path", Value: c.FullPath()},
			observe.Field{Key: "status", Value: c.Writer.Status()},
			observe.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
		)
	}
}
