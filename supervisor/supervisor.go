// Package supervisor runs the long-lived taskstore tasks and maps their
// outcome to a process exit code.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/girmesh03/Task-Manager-sub001/datastore"
	"github.com/girmesh03/Task-Manager-sub001/observe"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFatal  = 1
	ExitFailed = 2
)

// DefaultGrace bounds how long tasks may take to stop after shutdown starts.
const DefaultGrace = 10 * time.Second

// ErrGraceExceeded is logged when tasks outlive the grace period.
var ErrGraceExceeded = errors.New("supervisor: shutdown grace exceeded")

// Task is a named blocking function that returns when ctx is done.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Supervisor runs tasks in one errgroup: the first failure cancels the rest.
type Supervisor struct {
	Logger observe.Logger
	// Exit receives the exit code once every task has stopped. Nil skips it.
	Exit  func(code int)
	Grace time.Duration
}

// Run blocks until every task returned or ctx is done and the grace period
// elapsed. Configuration faults yield ExitFatal, other task failures
// ExitFailed, and a clean shutdown ExitOK.
func (s *Supervisor) Run(ctx context.Context, tasks ...Task) int {
	logger := s.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	grace := s.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			if err := t.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			logger.Debug(gctx, "task stopped", observe.Field{Key: "task", Value: t.Name})
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-gctx.Done():
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case err = <-done:
		case <-timer.C:
			logger.Warn(ctx, ErrGraceExceeded.Error(),
				observe.Field{Key: "grace_ms", Value: grace.Milliseconds()})
			err = ErrGraceExceeded
		}
	}

	code := s.exitCode(ctx, logger, err)
	if s.Exit != nil {
		s.Exit(code)
	}
	return code
}

func (s *Supervisor) exitCode(ctx context.Context, logger observe.Logger, err error) int {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info(ctx, "shutdown complete")
		return ExitOK
	case errors.Is(err, ErrGraceExceeded):
		return ExitFailed
	case errors.Is(err, datastore.ErrInvalidConfig):
		// Already logged by the manager on its fatal path.
		return ExitFatal
	default:
		logger.Error(ctx, "task failed", observe.Field{Key: "error", Value: err})
		return ExitFailed
	}
}
