package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/girmesh03/Task-Manager-sub001/adminserver"
	"github.com/girmesh03/Task-Manager-sub001/auth"
	"github.com/girmesh03/Task-Manager-sub001/config"
	"github.com/girmesh03/Task-Manager-sub001/datastore"
	"github.com/girmesh03/Task-Manager-sub001/events"
	"github.com/girmesh03/Task-Manager-sub001/health"
	"github.com/girmesh03/Task-Manager-sub001/observe"
	"github.com/girmesh03/Task-Manager-sub001/supervisor"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to the datastore and keep the session alive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, path)
		},
	}
}

func serve(ctx context.Context, path string) error {
	cfg, err := config.Load(ctx, path, nil)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Observe.Version == "" {
		cfg.Observe.Version = version
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownGrace)
		defer cancel()
		_ = obs.Shutdown(shutdownCtx)
	}()

	logger := obs.Logger()
	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return err
	}
	bus := events.NewBus(logger.With(observe.Field{Key: "component", Value: "events"}))

	if cfg.Kafka.Enabled() {
		sink, err := events.NewKafkaSink(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Service: cfg.Observe.ServiceName,
		}, logger)
		if err != nil {
			return err
		}
		detach := sink.Attach(bus)
		defer func() {
			detach()
			_ = sink.Close()
		}()
	}

	backoff, err := cfg.BackoffPolicy()
	if err != nil {
		return err
	}

	// An unusable URI or scheme leaves the dialer nil; the manager reports it
	// on its fatal path.
	dialer, err := datastore.DefaultRegistry.For(cfg.Datastore)
	if err != nil {
		logger.Debug(ctx, "no dialer resolved",
			observe.Field{Key: "schemes", Value: datastore.DefaultRegistry.Schemes()})
	}

	manager := datastore.New(cfg.Datastore, dialer,
		datastore.WithLogger(logger.With(observe.Field{Key: "component", Value: "datastore"})),
		datastore.WithBus(bus),
		datastore.WithBackoff(backoff),
		datastore.WithMetrics(metrics),
		datastore.WithTracer(observe.NewTracer(obs.Tracer())),
		datastore.WithMonitorConfig(cfg.Health),
		datastore.WithCloseTimeout(cfg.ShutdownGrace),
	)

	tasks := []supervisor.Task{{Name: "datastore", Run: manager.Run}}

	if cfg.Admin.Enabled {
		agg := health.NewAggregator(0)
		agg.Register(manager.Name(), manager)
		agg.Register(manager.Monitor().Name(), manager.Monitor())

		adminCfg := adminserver.Config{
			Addr:            cfg.Admin.Addr,
			History:         manager.Monitor().History,
			ShutdownTimeout: cfg.ShutdownGrace,
		}
		if cfg.Admin.JWTSecret != "" {
			v, err := auth.NewVerifier(auth.VerifierConfig{Secret: []byte(cfg.Admin.JWTSecret)})
			if err != nil {
				return err
			}
			adminCfg.Verifier = v
		}
		admin := adminserver.New(adminCfg, agg, logger.With(observe.Field{Key: "component", Value: "admin"}))
		tasks = append(tasks, supervisor.Task{Name: "admin", Run: admin.Run})
	}

	sup := &supervisor.Supervisor{Logger: logger, Grace: cfg.ShutdownGrace}
	if code := sup.Run(ctx, tasks...); code != supervisor.ExitOK {
		return exitError(code)
	}
	return nil
}
