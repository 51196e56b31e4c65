// Package metrics provides Prometheus metrics for the regatta scoring service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the scoring service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Engine metrics
	racesScored      prometheus.Counter
	fleetsScored     prometheus.Counter
	fleetsUnscorable prometheus.Counter
	finishesScored   prometheus.Counter
	overallGroups    prometheus.Counter
	configFallbacks  prometheus.Counter
	scoringErrors    prometheus.Counter
	scoringDuration  prometheus.Histogram
	lastScoringUnix  prometheus.Gauge

	// Store metrics
	storeQueryLatency  prometheus.Histogram
	storeUpdateLatency prometheus.Histogram
	racesStored        prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "regatta",
		subsystem:        "scoring",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.racesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_scored_total",
		Help:      "Total number of race scoring passes completed",
	})

	m.fleetsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fleets_scored_total",
		Help:      "Total number of fleets ranked and pointed",
	})

	m.fleetsUnscorable = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fleets_unscorable_total",
		Help:      "Total number of fleets skipped for want of a start time",
	})

	m.finishesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "finishes_scored_total",
		Help:      "Total number of finish records scored",
	})

	m.overallGroups = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "overall_groups_total",
		Help:      "Total number of cross-fleet overall groups ranked",
	})

	m.configFallbacks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "config_fallbacks_total",
		Help:      "Total number of malformed scoring configurations replaced by defaults",
	})

	m.scoringErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_errors_total",
		Help:      "Total number of scoring passes that failed at the persistence boundary",
	})

	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_milliseconds",
		Help:      "Histogram of full race scoring pass duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.lastScoringUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_scoring_unix",
		Help:      "Unix timestamp of the last completed scoring pass",
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Race data load latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeUpdateLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_update_latency_milliseconds",
		Help:      "Computed-field write-back latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.racesStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "races_stored",
		Help:      "Number of races currently held by the store",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordRaceScored increments the races scored counter.
func RecordRaceScored() {
	globalManager.racesScored.Inc()
}

// RecordFleetScored increments the fleets scored counter and adds the
// fleet's finish count.
func RecordFleetScored(finishes int) {
	globalManager.fleetsScored.Inc()
	globalManager.finishesScored.Add(float64(finishes))
}

// RecordFleetUnscoreable increments the unscoreable fleets counter.
func RecordFleetUnscoreable() {
	globalManager.fleetsUnscorable.Inc()
}

// RecordOverallGroup increments the overall groups counter.
func RecordOverallGroup() {
	globalManager.overallGroups.Inc()
}

// RecordConfigFallback increments the malformed configuration counter.
func RecordConfigFallback() {
	globalManager.configFallbacks.Inc()
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordScoringDuration records a full scoring pass duration in milliseconds.
func RecordScoringDuration(latencyMs float64) {
	globalManager.scoringDuration.Observe(latencyMs)
	globalManager.lastScoringUnix.Set(float64(time.Now().Unix()))
}

// RecordStoreQueryLatency records race data load latency in milliseconds.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordStoreUpdateLatency records write-back latency in milliseconds.
func RecordStoreUpdateLatency(latencyMs float64) {
	globalManager.storeUpdateLatency.Observe(latencyMs)
}

// UpdateRacesStored sets the stored race count.
func UpdateRacesStored(count int) {
	globalManager.racesStored.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
