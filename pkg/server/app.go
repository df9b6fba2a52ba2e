package server

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/config"
	xhttp "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/http"
	pkgkafka "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/kafka"
	applogger "github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/logger"
	"github.com/yudhaislamisulistya/rpl-sc-06-01/pkg/queue"
)

// Runner is a background component with an explicit start and a graceful stop.
type Runner interface {
	Start() error
	Stop(ctx context.Context) error
}

type closer struct {
	name string
	fn   func() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg     *config.Config
	logger  *applogger.Logger
	http    *xhttp.Server
	runners map[string]Runner
	order   []string
	closers []closer
}

// New creates an App around the HTTP server and the job queue.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, q queue.Service) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{cfg: cfg, logger: l, http: srv, runners: map[string]Runner{}}
	if q != nil {
		a.addRunner("job queue", q)
	}
	return a
}

// WithConsumer runs the Kafka consumer alongside the server.
func (a *App) WithConsumer(c *pkgkafka.Consumer) *App {
	a.addRunner("kafka consumer", c)
	return a
}

// OnClose registers a resource to release after every runner has stopped.
// Closers run in registration order.
func (a *App) OnClose(name string, fn func() error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *App) addRunner(name string, r Runner) {
	a.runners[name] = r
	a.order = append(a.order, name)
}

// Run starts every component and blocks until ctx is cancelled, SIGINT/SIGTERM
// arrives or the HTTP listener fails.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, name := range a.order {
		if err := a.runners[name].Start(); err != nil {
			_ = a.shutdown()
			return fmt.Errorf("start %s: %w", name, err)
		}
		a.logger.Info("component started", applogger.String("component", name))
	}
	if err := a.http.Start(); err != nil {
		_ = a.shutdown()
		return fmt.Errorf("start http server: %w", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-a.http.Err():
		a.logger.Error("http server failed", applogger.Error(runErr))
	}

	if err := a.shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

// shutdown stops the HTTP server and runners concurrently, then releases
// resources in order.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		if err := a.http.Stop(ctx); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	for _, name := range a.order {
		name, r := name, a.runners[name]
		g.Go(func() error {
			if err := r.Stop(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}
	stopErr := g.Wait()
	if stopErr != nil {
		a.logger.Warn("graceful stop incomplete", applogger.Error(stopErr))
	}

	var closeErrs []error
	for _, c := range a.closers {
		if err := c.fn(); err != nil {
			closeErrs = append(closeErrs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	if len(closeErrs) > 0 {
		// the logger may already be closed, so the error goes back to main
		return errors.Join(append([]error{stopErr}, closeErrs...)...)
	}
	return stopErr
}
