package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "CoinCast/pkg/http"
	applogger "CoinCast/pkg/logger"
)

// Runner is a background component started before the HTTP server and
// stopped after it.
type Runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type namedRunner struct {
	name string
	r    Runner
}

type namedCloser struct {
	name  string
	close func() error
}

// App owns one HTTP server plus the runners and resources behind it.
type App struct {
	name    string
	http    *xhttp.Server
	logger  *applogger.Logger
	runners []namedRunner
	closers []namedCloser
}

func New(name string, srv *xhttp.Server, logger *applogger.Logger) *App {
	if logger == nil {
		logger = applogger.NewNop()
	}
	return &App{name: name, http: srv, logger: logger}
}

// AddRunner registers a background component.
func (a *App) AddRunner(name string, r Runner) {
	a.runners = append(a.runners, namedRunner{name: name, r: r})
}

// AddCloser registers a resource released on shutdown. Closers run in
// reverse registration order.
func (a *App) AddCloser(name string, fn func() error) {
	a.closers = append(a.closers, namedCloser{name: name, close: fn})
}

func (a *App) Server() *xhttp.Server { return a.http }

// Run starts everything and blocks until ctx is done or SIGINT/SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i, nr := range a.runners {
		if err := nr.r.Start(ctx); err != nil {
			a.logger.Error("runner start failed", applogger.String("runner", nr.name), applogger.Error(err))
			a.stopRunners(a.runners[:i])
			a.close()
			return err
		}
		a.logger.Info("runner started", applogger.String("runner", nr.name))
	}

	if err := a.http.Start(); err != nil {
		a.logger.Error("http server start failed", applogger.Error(err))
		a.stopRunners(a.runners)
		a.close()
		return err
	}
	a.logger.Info("service started", applogger.String("service", a.name))

	<-ctx.Done()
	a.logger.Info("shutdown signal received", applogger.String("service", a.name))
	return a.shutdown()
}

func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.http.ShutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.http.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}
	a.stopRunners(a.runners)
	a.close()
	a.logger.Info("shutdown complete", applogger.String("service", a.name))
	return errors.Join(errs...)
}

func (a *App) stopRunners(rs []namedRunner) {
	for i := len(rs) - 1; i >= 0; i-- {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := rs[i].r.Stop(ctx); err != nil {
			a.logger.Warn("runner stop error", applogger.String("runner", rs[i].name), applogger.Error(err))
		}
		cancel()
	}
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Warn("close error", applogger.String("resource", c.name), applogger.Error(err))
		}
	}
}
