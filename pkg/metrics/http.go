package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request-level metadata for the API server.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
	inflight prometheus.Gauge
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "route", "status"})
	inflight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})
	reg.MustRegister(duration, requests, inflight)
	return &HTTPMetrics{
		duration: duration,
		requests: requests,
		inflight: inflight,
	}
}

// ObserveRequest records one served request.
func (m *HTTPMetrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	method = normalizeLabel(method)
	route = normalizeLabel(route)
	status = normalizeLabel(status)
	m.duration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
	m.requests.WithLabelValues(method, route, status).Inc()
}

// IncInFlight bumps the in-flight gauge.
func (m *HTTPMetrics) IncInFlight() {
	if m == nil || m.inflight == nil {
		return
	}
	m.inflight.Inc()
}

// DecInFlight releases the in-flight gauge.
func (m *HTTPMetrics) DecInFlight() {
	if m == nil || m.inflight == nil {
		return
	}
	m.inflight.Dec()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
