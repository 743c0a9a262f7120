// Package app provides top-level lifecycle management: it wires the
// adapter registry, snapshot store, engine, tick pipeline, event bus, and
// notification sinks, and runs the goroutines the configured mode needs.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arbhub/arbhub/internal/api"
	"github.com/arbhub/arbhub/internal/config"
	"github.com/arbhub/arbhub/internal/feed"
)

// App is the root application object. It owns the configuration, logger,
// and cleanup functions run in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, starts the mode's goroutines, and blocks until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("arbitrage_mode", a.cfg.Arbitrage.Mode),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	mode := strings.ToLower(a.cfg.Mode)
	runScan := mode == "scan" || mode == "full"
	runStream := mode == "stream" || mode == "full"

	g, ctx := errgroup.WithContext(ctx)

	if runScan {
		g.Go(func() error { return deps.Engine.Run(ctx) })
	}
	if runStream {
		g.Go(func() error { return deps.Pipeline.Run(ctx) })
	}
	if a.cfg.API.Enabled {
		var pipeline *feed.Pipeline
		if runStream {
			pipeline = deps.Pipeline
		}
		server := api.NewServer(a.cfg.API.Port, deps.Engine, pipeline, a.logger)
		g.Go(func() error { return server.Run(ctx) })
	}

	return g.Wait()
}

// Close tears down all resources in reverse registration order. Safe to
// call multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

