package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/polyfocus/internal/domain"
	"github.com/alanyoungcy/polyfocus/internal/market"
)

// writeJSON encodes v with the given status. Encoding happens before the
// header is written so a marshal failure still yields a clean 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, market.ErrInvalidMaxHours):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited), errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// parseListOpts reads limit and offset. Malformed or out-of-range values fall
// back to the defaults; limit is capped at maxPageLimit.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()
	return domain.ListOpts{
		Limit:  min(queryInt(q.Get("limit"), defaultPageLimit, 1), maxPageLimit),
		Offset: queryInt(q.Get("offset"), 0, 0),
	}
}

// queryInt parses v, returning def when v is empty, malformed or below floor.
func queryInt(v string, def, floor int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < floor {
		return def
	}
	return n
}

// parseMaxHours reads the max_hours query parameter. Absent means 0, which
// the service treats as the configured window.
func parseMaxHours(r *http.Request) (float64, error) {
	v := r.URL.Query().Get("max_hours")
	if v == "" {
		return 0, nil
	}
	h, err := strconv.ParseFloat(v, 64)
	if err != nil || !(h > 0) {
		return 0, fmt.Errorf("%w: max_hours=%q", market.ErrInvalidMaxHours, v)
	}
	return h, nil
}

// parseBool reads a boolean query parameter, defaulting to false.
func parseBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
