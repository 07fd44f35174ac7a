package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linesmerrill/police-fir-api/disposal"
	"github.com/linesmerrill/police-fir-api/performance"
)

const metricsNamespace = "fir"

// Metrics holds the prometheus collectors of the service on a private
// registry
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	openCases       *prometheus.GaugeVec
	performance     *prometheus.GaugeVec
	disposals       *prometheus.CounterVec
	snapshotRuns    *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		openCases: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "open_cases",
			Help:      "Registered cases by station and urgency tier as of the last snapshot.",
		}, []string{"station", "tier"}),
		performance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "station_performance_percentage",
			Help:      "On-time chargesheet percentage by station as of the last snapshot.",
		}, []string{"station"}),
		disposals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "disposals_total",
			Help:      "Applied disposal transitions by target status.",
		}, []string{"status"}),
		snapshotRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "snapshot_runs_total",
			Help:      "Scheduled snapshot runs by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		m.requests, m.requestDuration, m.openCases, m.performance, m.disposals, m.snapshotRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordDisposal counts a successful disposal transition
func (m *Metrics) RecordDisposal(status string) {
	m.disposals.WithLabelValues(status).Inc()
}

// RecordSnapshotRun counts a scheduler run, outcome is "ok", "skipped" or "error"
func (m *Metrics) RecordSnapshotRun(outcome string) {
	m.snapshotRuns.WithLabelValues(outcome).Inc()
}

// SetStationGauges replaces the per-station gauges with the figures of r
func (m *Metrics) SetStationGauges(r performance.Report) {
	m.openCases.Reset()
	m.performance.Reset()
	for _, s := range r.Stations {
		for _, tier := range disposal.Tiers {
			m.openCases.WithLabelValues(s.StationName, string(tier)).Set(float64(s.UrgencyHistogram[string(tier)]))
		}
		m.performance.WithLabelValues(s.StationName).Set(float64(s.PerformancePercentage))
	}
}
