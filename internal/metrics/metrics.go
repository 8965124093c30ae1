// Package metrics provides Prometheus instrumentation for refreshes and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alanyoungcy/polyfocus/internal/domain"
)

// Refresh results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// Metrics owns a private registry so tests and multiple instances do not
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	// RefreshesTotal counts refreshes by result.
	RefreshesTotal *prometheus.CounterVec
	// RefreshDuration tracks end-to-end refresh latency.
	RefreshDuration prometheus.Histogram
	// Records tracks the size of the latest snapshot by stage.
	Records *prometheus.GaugeVec
	// FailedPages counts Gamma pages that contributed zero records.
	FailedPages prometheus.Counter
	// LastRefresh is the unix time of the last successful refresh.
	LastRefresh prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, plus the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RefreshesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polyfocus_refreshes_total",
			Help: "Total snapshot refreshes by result",
		}, []string{"result"}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "polyfocus_refresh_duration_seconds",
			Help:    "Snapshot refresh duration in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}),
		Records: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "polyfocus_records",
			Help: "Records in the latest snapshot by stage",
		}, []string{"stage"}),
		FailedPages: f.NewCounter(prometheus.CounterOpts{
			Name: "polyfocus_gamma_failed_pages_total",
			Help: "Gamma listing pages that failed and contributed no records",
		}),
		LastRefresh: f.NewGauge(prometheus.GaugeOpts{
			Name: "polyfocus_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "polyfocus_http_requests_total",
			Help: "Total HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "polyfocus_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "route"}),
	}
}

// ObserveRefresh records one refresh attempt.
func (m *Metrics) ObserveRefresh(result string, d time.Duration) {
	m.RefreshesTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.RefreshDuration.Observe(d.Seconds())
		m.LastRefresh.SetToCurrentTime()
	}
}

// ObserveSnapshot sets the per-stage gauges from a snapshot's stats.
func (m *Metrics) ObserveSnapshot(st domain.Stats) {
	m.Records.WithLabelValues("all").Set(float64(st.Records))
	m.Records.WithLabelValues("candidates").Set(float64(st.Candidates))
	m.Records.WithLabelValues("invalid").Set(float64(st.Invalid))
	m.Records.WithLabelValues("price_note").Set(float64(st.PriceNotes))
}

// PageFailed increments the failed page counter. It matches the Gamma
// client's page failure hook.
func (m *Metrics) PageFailed() {
	m.FailedPages.Inc()
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency, labelled by the ServeMux
// route pattern to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
