// Package metrics provides Prometheus metrics for the stride step tracker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the stride service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Step pipeline
	stepsRecorded   *prometheus.CounterVec
	sensorFallbacks *prometheus.CounterVec
	todaySteps      prometheus.Gauge
	storageErrors   *prometheus.CounterVec
	storageLatency  *prometheus.HistogramVec

	// Ranking
	rankingUpdates prometheus.Counter
	rankingEntries prometheus.Gauge

	// Sample ingestion
	samplesIngested  prometheus.Counter
	samplesDuplicate prometheus.Counter
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueRejected    *prometheus.CounterVec
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrors     prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsByEndpoint    *prometheus.CounterVec
	errorsByType        *prometheus.CounterVec

	// Subscriptions
	activeSubscriptions prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "stride",
		subsystem:        "tracker",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.stepsRecorded = auto.NewCounterVec(m.counterOpts("steps_recorded_total", "Step records persisted, by data source"), []string{"source"})
	m.sensorFallbacks = auto.NewCounterVec(m.counterOpts("sensor_fallbacks_total", "Times synthetic data replaced the live sensor, by reason"), []string{"reason"})
	m.todaySteps = auto.NewGauge(m.gaugeOpts("today_steps", "Most recent step count recorded for today"))
	m.storageErrors = auto.NewCounterVec(m.counterOpts("storage_errors_total", "Swallowed storage failures, by operation"), []string{"op"})
	m.storageLatency = auto.NewHistogramVec(m.histogramOpts("storage_latency_milliseconds", "Key-value store call latency in milliseconds"), []string{"op"})

	m.rankingUpdates = auto.NewCounter(m.counterOpts("ranking_updates_total", "Ranking re-derivations persisted"))
	m.rankingEntries = auto.NewGauge(m.gaugeOpts("ranking_entries", "Entries in the stored ranking list"))

	m.samplesIngested = auto.NewCounter(m.counterOpts("samples_ingested_total", "Pedometer samples accepted for processing"))
	m.samplesDuplicate = auto.NewCounter(m.counterOpts("samples_duplicate_total", "Pedometer samples dropped as duplicates"))
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Samples waiting in the ingestion queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Capacity of the ingestion queue"))
	m.queueRejected = auto.NewCounterVec(m.counterOpts("queue_rejected_total", "Samples rejected by the ingestion queue, by reason"), []string{"reason"})
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Ingestion workers running"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Time to apply one sample to the sensor"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Samples the workers failed to apply"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts("errors_by_endpoint_total", "HTTP errors by endpoint"), []string{"endpoint", "method", "error_type"})
	m.errorsByType = auto.NewCounterVec(m.counterOpts("errors_by_type_total", "HTTP errors by type and severity"), []string{"error_type", "severity"})

	m.activeSubscriptions = auto.NewGauge(m.gaugeOpts("active_subscriptions", "Tracking subscriptions not yet cancelled"))
}

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func on() bool { return globalManager != nil && globalManager.enabled }

// RecordStepsRecorded counts a persisted step record from source (sensor or synthetic).
func RecordStepsRecorded(source string, steps int) {
	if !on() {
		return
	}
	globalManager.stepsRecorded.WithLabelValues(source).Inc()
	globalManager.todaySteps.Set(float64(steps))
}

// RecordSensorFallback counts a switch to synthetic data.
func RecordSensorFallback(reason string) {
	if on() {
		globalManager.sensorFallbacks.WithLabelValues(reason).Inc()
	}
}

// RecordStorageError counts a storage failure that was converted to a result.
func RecordStorageError(op string) {
	if on() {
		globalManager.storageErrors.WithLabelValues(op).Inc()
	}
}

// RecordStorageLatency observes a key-value call duration.
func RecordStorageLatency(op string, latencyMs float64) {
	if on() {
		globalManager.storageLatency.WithLabelValues(op).Observe(latencyMs)
	}
}

// RecordRankingUpdate counts a persisted ranking and records its size.
func RecordRankingUpdate(entries int) {
	if !on() {
		return
	}
	globalManager.rankingUpdates.Inc()
	globalManager.rankingEntries.Set(float64(entries))
}

// UpdateRankingEntries records the size of the stored ranking.
func UpdateRankingEntries(entries int) {
	if on() {
		globalManager.rankingEntries.Set(float64(entries))
	}
}

// RecordSampleIngested counts an accepted pedometer sample.
func RecordSampleIngested() {
	if on() {
		globalManager.samplesIngested.Inc()
	}
}

// RecordSampleDuplicate counts a sample dropped by dedupe.
func RecordSampleDuplicate() {
	if on() {
		globalManager.samplesDuplicate.Inc()
	}
}

// UpdateQueueSize records the ingestion backlog.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity records the ingestion queue bound.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueRejected counts a sample the queue refused.
func RecordQueueRejected(reason string) {
	if on() {
		globalManager.queueRejected.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerCount records the running ingestion workers.
func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency observes how long one sample took.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a sample that failed to apply.
func RecordWorkerError() {
	if on() {
		globalManager.workerErrors.Inc()
	}
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes a served request's duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByEndpoint counts an error response per endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// RecordErrorByType counts an error response per type and severity.
func RecordErrorByType(errorType, severity string) {
	if on() {
		globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
	}
}

// AddActiveSubscriptions moves the open-subscription gauge by delta.
func AddActiveSubscriptions(delta int) {
	if on() {
		globalManager.activeSubscriptions.Add(float64(delta))
	}
}
