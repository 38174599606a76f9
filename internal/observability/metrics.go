package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal          *prometheus.CounterVec
	RequestDurationSeconds *prometheus.HistogramVec
	ActiveRequests         prometheus.Gauge
	SessionsCreatedTotal   *prometheus.CounterVec
	AnalysisCacheTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typetrack_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "typetrack_http_request_duration_seconds",
			Help:    "HTTP handler latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method"}),
		ActiveRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "typetrack_http_active_requests",
			Help: "Current number of in-flight requests.",
		}),
		SessionsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typetrack_sessions_created_total",
			Help: "Typing sessions stored, by nominal duration.",
		}, []string{"duration"}),
		AnalysisCacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "typetrack_analysis_cache_lookups_total",
			Help: "Analysis cache lookups by result.",
		}, []string{"result"}),
	}
	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDurationSeconds,
		m.ActiveRequests,
		m.SessionsCreatedTotal,
		m.AnalysisCacheTotal,
	)
	return m
}

// SessionCreated counts a stored session.
func (m *Metrics) SessionCreated(duration int) {
	m.SessionsCreatedTotal.WithLabelValues(strconv.Itoa(duration)).Inc()
}

// CacheLookup counts an analysis cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.AnalysisCacheTotal.WithLabelValues(result).Inc()
}
