package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// RefreshHandler serves the manual refresh trigger.
type RefreshHandler struct {
	logger    *slog.Logger
	triggerCh chan<- struct{}
}

// NewRefreshHandler creates a RefreshHandler that signals triggerCh. A nil
// channel makes the endpoint a no-op that still answers 202.
func NewRefreshHandler(triggerCh chan<- struct{}, logger *slog.Logger) *RefreshHandler {
	return &RefreshHandler{logger: logger, triggerCh: triggerCh}
}

// TriggerRefresh enqueues one refresh without waiting for it. Requests made
// while a trigger is already pending are coalesced.
// POST /api/refresh
func (h *RefreshHandler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	queued := false
	if h.triggerCh != nil {
		select {
		case h.triggerCh <- struct{}{}:
			queued = true
		default:
		}
	}
	h.logger.InfoContext(r.Context(), "handler: refresh requested", slog.Bool("queued", queued))

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"queued":       queued,
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}
