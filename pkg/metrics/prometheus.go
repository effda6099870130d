// Package metrics provides Prometheus metrics for the kpiboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Refresh pipeline
	refreshes        prometheus.Counter
	refreshErrors    prometheus.Counter
	refreshStale     prometheus.Counter
	refreshDuration  prometheus.Histogram
	notifications    *prometheus.CounterVec
	notificationDrop prometheus.Counter

	// Snapshot
	snapshotGeneration    prometheus.Gauge
	snapshotLastUnix      prometheus.Gauge
	snapshotRecords       prometheus.Gauge
	snapshotLedgerEntries prometheus.Gauge

	// Ranking
	rankingLatency  prometheus.Histogram
	rankedEmployees *prometheus.GaugeVec

	// Queue
	queueSize     prometheus.Gauge
	queueCapacity prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "kpiboard",
		subsystem:        "ranking",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.refreshes = m.counter("refreshes_total", "Snapshots fetched and published")
	m.refreshErrors = m.counter("refresh_errors_total", "Snapshot fetches that failed upstream")
	m.refreshStale = m.counter("refresh_stale_total", "Snapshot fetches discarded because a newer one started")
	m.refreshDuration = m.histogram("refresh_duration_milliseconds", "Time to fetch a full snapshot")
	m.notifications = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "change_notifications_total",
		Help: "Change notifications received, by source",
	}, []string{"source"})
	m.notificationDrop = m.counter("change_notifications_dropped_total", "Change notifications dropped because the queue was full")

	m.snapshotGeneration = m.gauge("snapshot_generation", "Generation of the published snapshot")
	m.snapshotLastUnix = m.gauge("snapshot_last_unix", "Unix time the current snapshot was published")
	m.snapshotRecords = m.gauge("snapshot_records", "Target rows in the current snapshot")
	m.snapshotLedgerEntries = m.gauge("snapshot_ledger_entries", "Ledger entries summed into the current snapshot")

	m.rankingLatency = m.histogram("ranking_latency_milliseconds", "Time to filter, score and sort one ranking")
	m.rankedEmployees = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "ranked_employees",
		Help: "Employees in the last ranking computed for a scope",
	}, []string{"scope"})

	m.queueSize = m.gauge("queue_size", "Change notifications waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum change queue capacity")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "errors_total",
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordRefresh records a published snapshot and how long it took.
func RecordRefresh(durationMs float64) {
	globalManager.refreshes.Inc()
	globalManager.refreshDuration.Observe(durationMs)
}

// RecordRefreshError counts a failed snapshot fetch.
func RecordRefreshError() {
	globalManager.refreshErrors.Inc()
	globalManager.errorsByComponent.WithLabelValues("refresher", "fetch_error").Inc()
}

// RecordRefreshStale counts a snapshot discarded in favour of a newer one.
func RecordRefreshStale() {
	globalManager.refreshStale.Inc()
}

// RecordNotification counts a change notification from source.
func RecordNotification(source string) {
	globalManager.notifications.WithLabelValues(source).Inc()
}

// RecordNotificationDropped counts a notification rejected by a full queue.
func RecordNotificationDropped() {
	globalManager.notificationDrop.Inc()
}

// UpdateSnapshot publishes the shape of the current snapshot.
func UpdateSnapshot(generation uint64, publishedUnix int64, records, ledgerEntries int) {
	globalManager.snapshotGeneration.Set(float64(generation))
	globalManager.snapshotLastUnix.Set(float64(publishedUnix))
	globalManager.snapshotRecords.Set(float64(records))
	globalManager.snapshotLedgerEntries.Set(float64(ledgerEntries))
}

// RecordRanking records one ranking computation for scope.
func RecordRanking(scope string, employees int, latencyMs float64) {
	globalManager.rankingLatency.Observe(latencyMs)
	globalManager.rankedEmployees.WithLabelValues(scope).Set(float64(employees))
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage updates system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
