package server

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the telemetry server
type Metrics struct {
	// Counters
	IngestTotal        prometheus.CounterVec
	ValidationFailures prometheus.CounterVec
	DedupHits          prometheus.Counter
	AlertsTotal        prometheus.CounterVec

	// Gauges
	LiveStreamClients prometheus.Gauge

	// Histograms
	RequestDuration prometheus.HistogramVec
}

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// InitMetrics initializes global Prometheus metrics
func InitMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			IngestTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "playlytics_ingest_total",
					Help: "Total ingested entities by kind and status",
				},
				[]string{"entity", "status"},
			),
			ValidationFailures: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "playlytics_validation_failures_total",
					Help: "Total rejected payloads by entity",
				},
				[]string{"entity"},
			),
			DedupHits: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "playlytics_dedup_hits_total",
					Help: "Total events suppressed as client retries",
				},
			),
			AlertsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "playlytics_alerts_total",
					Help: "Total alert notifications by status",
				},
				[]string{"status"},
			),
			LiveStreamClients: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "playlytics_live_stream_clients",
					Help: "Currently connected live stream clients",
				},
			),
			RequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "playlytics_request_duration_seconds",
					Help:    "HTTP request duration by route",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"route"},
			),
		}
	})
	return globalMetrics
}

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	if globalMetrics == nil {
		return InitMetrics()
	}
	return globalMetrics
}

// RecordIngest records an ingest attempt outcome
func (m *Metrics) RecordIngest(entity string, status string) {
	if m == nil {
		return
	}
	m.IngestTotal.WithLabelValues(entity, status).Inc()
}

// RecordValidationFailure records a rejected payload
func (m *Metrics) RecordValidationFailure(entity string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(entity).Inc()
}

// RecordDedupHit records a suppressed duplicate event
func (m *Metrics) RecordDedupHit() {
	if m == nil {
		return
	}
	m.DedupHits.Inc()
}

// RecordAlert records an alert dispatch outcome
func (m *Metrics) RecordAlert(status string) {
	if m == nil {
		return
	}
	m.AlertsTotal.WithLabelValues(status).Inc()
}

// SetLiveStreamClients sets the connected live stream client count
func (m *Metrics) SetLiveStreamClients(count int64) {
	if m == nil {
		return
	}
	m.LiveStreamClients.Set(float64(count))
}

// RecordRequestDuration records handler latency for a route
func (m *Metrics) RecordRequestDuration(route string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route).Observe(seconds)
}
