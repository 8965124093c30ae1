// Package app wires the polyfocus backends from configuration and runs one of
// the operating modes: "serve" keeps a refresh loop and the HTTP API running,
// "once" performs a single refresh and prints the focus report.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alanyoungcy/polyfocus/internal/config"
)

type modeFunc func(a *App, ctx context.Context, deps *Dependencies) error

var modes = map[string]modeFunc{
	"serve": (*App).ServeMode,
	"once":  (*App).OnceMode,
}

// App owns the configuration and the cleanup hooks of everything Run wired.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	out     io.Writer
	closers []func()
}

func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
		out:    os.Stdout,
	}
}

// Run wires dependencies and blocks in the configured mode until it returns
// or ctx is cancelled. An unknown mode fails before any backend is opened.
func (a *App) Run(ctx context.Context) error {
	mode := strings.ToLower(strings.TrimSpace(a.cfg.Mode))
	run, ok := modes[mode]
	if !ok {
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}

	a.logger.InfoContext(ctx, "starting", slog.String("mode", mode))

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	return run(a, ctx, deps)
}

// Close runs cleanup hooks newest first. Later calls do nothing.
func (a *App) Close() {
	if len(a.closers) == 0 {
		return
	}
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
