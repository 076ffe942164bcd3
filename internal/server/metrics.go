package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes server metrics in Prometheus format. Fit counts and
// durations are recorded by the fit package.
type Metrics struct {
	handler http.Handler
}

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bassfit_active_requests",
		Help: "Current number of active requests",
	})
	totalRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bassfit_requests_total",
		Help: "Total number of requests received",
	})
	analysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bassfit_analyses_total",
		Help: "Analyses served, by outcome",
	}, []string{"outcome"})
	analysisSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bassfit_analysis_duration_seconds",
		Help:    "Wall time of uncached analyses, fit included",
		Buckets: prometheus.ExponentialBuckets(1e-4, 4, 10),
	})
)

// Analysis outcomes.
const (
	outcomeOK       = "ok"
	outcomeCached   = "cached"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		handler: promhttp.Handler(),
	}
}

// IncrementActiveRequests increments the active requests gauge
// and the total requests counter.
func (m *Metrics) IncrementActiveRequests() {
	activeRequests.Inc()
	totalRequests.Inc()
}

// DecrementActiveRequests decrements the active requests gauge.
func (m *Metrics) DecrementActiveRequests() {
	activeRequests.Dec()
}

// RecordAnalysis counts one analysis with the given outcome.
func (m *Metrics) RecordAnalysis(outcome string) {
	analysesTotal.WithLabelValues(outcome).Inc()
}

// ObserveAnalysis records the wall time of one successful uncached analysis.
func (m *Metrics) ObserveAnalysis(d time.Duration) {
	analysisSeconds.Observe(d.Seconds())
}

// WritePrometheus writes metrics in Prometheus text format to the HTTP response.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.metrics.WritePrometheus(w, r)
}

// metricsMiddleware tracks active requests.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.IncrementActiveRequests()
		defer s.metrics.DecrementActiveRequests()
		next(w, r)
	}
}
