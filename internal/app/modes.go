package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/polyfocus/internal/domain"
	"github.com/alanyoungcy/polyfocus/internal/server"
	"github.com/alanyoungcy/polyfocus/internal/server/handler"
)

// refreshRPS caps manual refresh triggers per client.
const refreshRPS = 0.2

// ServeMode runs the refresh loop and the HTTP API until ctx is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Duration("refresh_interval", a.cfg.Fetch.RefreshInterval.Duration),
		slog.Float64("max_hours", a.cfg.Selection.MaxHours),
	)

	g, ctx := errgroup.WithContext(ctx)

	// Buffered by one so repeated POSTs coalesce into a single pending run.
	triggerCh := make(chan struct{}, 1)

	g.Go(func() error {
		return deps.Refresher.RunLoop(ctx, a.cfg.Fetch.RefreshInterval.Duration, triggerCh)
	})

	a.startHTTPServer(ctx, g, deps, triggerCh)

	return g.Wait()
}

// startHTTPServer adds the HTTP server and its shutdown watcher to g.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, triggerCh chan<- struct{}) {
	health := handler.NewHealthHandler(deps.Focus, a.logger)
	for name, check := range deps.Checks {
		health.WithCheck(name, check)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		RefreshRPS:  refreshRPS,
	}, server.Handlers{
		Health:     health,
		Markets:    handler.NewMarketHandler(deps.Focus, a.logger),
		Refresh:    handler.NewRefreshHandler(triggerCh, a.logger),
		Metrics:    deps.Metrics.Handler(),
		Instrument: deps.Metrics.Middleware,
	}, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// onceReport is the JSON document printed by once mode.
type onceReport struct {
	SnapshotID string           `json:"snapshot_id"`
	FetchedAt  time.Time        `json:"fetched_at"`
	MaxHours   float64          `json:"max_hours"`
	Stats      domain.Stats     `json:"stats"`
	Focus      domain.FocusPair `json:"focus"`
}

// OnceMode performs a single refresh and prints a summary to stdout.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode")

	snap, err := deps.Focus.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("once mode: %w", err)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(onceReport{
		SnapshotID: snap.ID,
		FetchedAt:  snap.FetchedAt,
		MaxHours:   snap.MaxHours,
		Stats:      snap.Stats(),
		Focus:      snap.Focus,
	}); err != nil {
		return fmt.Errorf("once mode: write report: %w", err)
	}
	return nil
}
