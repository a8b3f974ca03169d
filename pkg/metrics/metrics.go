// Package metrics provides Prometheus metrics for the proctor service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric the service records.
type Manager struct {
	namespace string
	registry  prometheus.Registerer

	// Telemetry pipeline
	eventsTracked    prometheus.Counter
	eventsDelivered  prometheus.Counter
	deliveryRetries  prometheus.Counter
	telemetryPending prometheus.Gauge
	idleGaps         prometheus.Counter
	idleGapSeconds   prometheus.Histogram

	// Phase state machine
	phaseTransitions *prometheus.CounterVec

	// Analyzer
	analyses        *prometheus.CounterVec
	analysisLatency prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace sets the namespace for all metrics.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// WithRegistry overrides the Prometheus registerer.
func WithRegistry(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// Registry is the custom registry served on /metrics; a custom registry
// avoids the default Go collectors double-registering.
var Registry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(Registry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "proctor",
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.eventsTracked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_tracked_total",
		Help:      "Events accepted into the per-session pending queue",
	})
	m.eventsDelivered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_delivered_total",
		Help:      "Events acknowledged by the event store",
	})
	m.deliveryRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "delivery_retries_total",
		Help:      "Failed delivery attempts that were retried",
	})
	m.telemetryPending = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "telemetry_pending",
		Help:      "Events currently queued for delivery",
	})
	m.idleGaps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "idle_gaps_total",
		Help:      "Synthetic idle-gap events fired",
	})
	m.idleGapSeconds = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "idle_gap_seconds",
		Help:      "Observed idle gap lengths in seconds",
		Buckets:   []float64{5, 10, 30, 60, 120, 300, 600},
	})
	m.phaseTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "phase_transitions_total",
		Help:      "Successful phase transitions by target phase",
	}, []string{"to"})
	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "analyses_total",
		Help:      "Completed analyses by outcome (synthesized or fallback)",
	}, []string{"outcome"})
	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end analysis duration in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method"})

	return m
}

// RecordEventTracked increments the tracked-events counter.
func RecordEventTracked() {
	globalManager.eventsTracked.Inc()
}

// RecordEventDelivered increments the delivered-events counter.
func RecordEventDelivered() {
	globalManager.eventsDelivered.Inc()
}

// RecordDeliveryRetry increments the retried-deliveries counter.
func RecordDeliveryRetry() {
	globalManager.deliveryRetries.Inc()
}

// UpdateTelemetryPending sets the current pending-queue depth.
func UpdateTelemetryPending(n int) {
	globalManager.telemetryPending.Set(float64(n))
}

// RecordIdleGap records one synthetic idle gap and its length.
func RecordIdleGap(gap time.Duration) {
	globalManager.idleGaps.Inc()
	globalManager.idleGapSeconds.Observe(gap.Seconds())
}

// RecordPhaseTransition counts a successful transition into phase.
func RecordPhaseTransition(to string) {
	globalManager.phaseTransitions.WithLabelValues(to).Inc()
}

// RecordAnalysis counts one completed analysis and its duration.
func RecordAnalysis(outcome string, d time.Duration) {
	globalManager.analyses.WithLabelValues(outcome).Inc()
	globalManager.analysisLatency.Observe(d.Seconds())
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(endpoint, method, status string, d time.Duration) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}
