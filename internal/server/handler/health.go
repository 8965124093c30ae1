package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// healthCheckTimeout bounds each backend probe.
const healthCheckTimeout = 2 * time.Second

// SnapshotSource exposes the latest snapshot for health reporting.
type SnapshotSource interface {
	Latest(ctx context.Context) (domain.Snapshot, error)
}

// CheckFunc probes one backend and returns nil when it is reachable.
type CheckFunc func(ctx context.Context) error

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	snapshots SnapshotSource
	checks    map[string]CheckFunc
	logger    *slog.Logger
}

// NewHealthHandler creates a HealthHandler. snapshots may be nil.
func NewHealthHandler(snapshots SnapshotSource, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{snapshots: snapshots, checks: map[string]CheckFunc{}, logger: logger}
}

// WithCheck registers a backend probe reported under name.
func (h *HealthHandler) WithCheck(name string, fn CheckFunc) *HealthHandler {
	h.checks[name] = fn
	return h
}

// HealthCheck reports liveness, backend reachability and the age of the
// latest snapshot. The status is "warming" until the first refresh completes
// and "degraded", with a 503, when a backend probe fails.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.snapshots != nil {
		snap, err := h.snapshots.Latest(r.Context())
		if err != nil {
			resp["status"] = "warming"
		} else {
			resp["snapshot_id"] = snap.ID
			resp["fetched_at"] = snap.FetchedAt.UTC().Format(time.RFC3339)
			resp["stats"] = snap.Stats()
		}
	}

	status := http.StatusOK
	if len(h.checks) > 0 {
		names := make([]string, 0, len(h.checks))
		for name := range h.checks {
			names = append(names, name)
		}
		sort.Strings(names)

		backends := make(map[string]string, len(names))
		for _, name := range names {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := h.checks[name](ctx)
			cancel()
			if err != nil {
				h.logger.WarnContext(r.Context(), "handler: health check failed",
					slog.String("backend", name),
					slog.String("error", err.Error()),
				)
				backends[name] = err.Error()
				resp["status"] = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			backends[name] = "ok"
		}
		resp["backends"] = backends
	}
	writeJSON(w, status, resp)
}
