// Package server exposes the HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polyfocus/internal/server/handler"
	"github.com/alanyoungcy/polyfocus/internal/server/middleware"
)

// Config configures the listener and the cross-cutting middleware.
type Config struct {
	Port        int
	CORSOrigins []string
	// RefreshRPS limits POST /api/refresh per client IP. Zero disables it.
	RefreshRPS float64
}

// Handlers are the endpoint implementations Routes mounts.
type Handlers struct {
	Health  *handler.HealthHandler
	Markets *handler.MarketHandler
	Refresh *handler.RefreshHandler
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
	// Instrument wraps the route mux when non-nil.
	Instrument func(http.Handler) http.Handler
}

// Server serves the read API and the refresh trigger.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds a Server around Routes. Nothing listens until Start.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	h := Routes(cfg, handlers, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Routes builds the routed and wrapped handler.
func Routes(cfg Config, handlers Handlers, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/{id}", handlers.Markets.GetMarket)
	mux.HandleFunc("GET /api/candidates", handlers.Markets.ListCandidates)
	mux.HandleFunc("GET /api/focus", handlers.Markets.GetFocus)
	mux.HandleFunc("GET /api/focus/quotes", handlers.Markets.GetFocusQuotes)
	mux.HandleFunc("GET /api/books/{token_id}", handlers.Markets.GetBook)

	var refresh http.Handler = http.HandlerFunc(handlers.Refresh.TriggerRefresh)
	if cfg.RefreshRPS > 0 {
		refresh = middleware.RateLimit(cfg.RefreshRPS, 1)(refresh)
	}
	mux.Handle("POST /api/refresh", refresh)

	if handlers.Metrics != nil {
		mux.Handle("GET /metrics", handlers.Metrics)
	}

	var h http.Handler = mux
	if handlers.Instrument != nil {
		h = handlers.Instrument(h)
	}
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	return h
}

// Start blocks serving requests. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests until
// ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http draining")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
