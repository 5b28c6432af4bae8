// Package metrics provides Prometheus metrics for the insights service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the insights service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Pipeline metrics
	uploads             *prometheus.CounterVec
	pipelineErrors      *prometheus.CounterVec
	stageLatency        *prometheus.HistogramVec
	pipelineLatency     prometheus.Histogram
	rowsIngested        prometheus.Counter
	rowsDropped         *prometheus.CounterVec
	valuesCoerced       *prometheus.CounterVec
	valuesFilled        prometheus.Counter
	forecastsDegenerate prometheus.Counter
	historyDays         prometheus.Histogram

	// Job queue and worker metrics
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueRejected  *prometheus.CounterVec
	queueWait      prometheus.Histogram
	workersBusy    prometheus.Gauge
	workersRunning prometheus.Gauge

	// Account and session metrics
	accountsCreated prometheus.Counter
	loginFailures   prometheus.Counter
	sessionsActive  prometheus.Gauge
	rateLimited     prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "insights",
		subsystem:        "sales",
		histogramBuckets: prometheus.DefBuckets,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	// Pipeline metrics
	m.uploads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "uploads_total",
		Help:        "Total number of uploaded datasets by outcome",
		ConstLabels: constLabels,
	}, []string{"status", "format"})

	m.pipelineErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pipeline_errors_total",
		Help:        "Total number of failed pipeline invocations by error kind",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.stageLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "stage_latency_milliseconds",
		Help:        "Latency of each pipeline stage in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"stage"})

	m.pipelineLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "pipeline_latency_milliseconds",
		Help:        "End to end pipeline latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.rowsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_ingested_total",
		Help:        "Total number of raw rows read from uploads",
		ConstLabels: constLabels,
	})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "rows_dropped_total",
		Help:        "Total number of rows discarded by the cleaner by reason",
		ConstLabels: constLabels,
	}, []string{"reason"})

	m.valuesCoerced = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "values_coerced_total",
		Help:        "Total number of unparsable numeric values replaced with zero by column",
		ConstLabels: constLabels,
	}, []string{"column"})

	m.valuesFilled = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "values_filled_total",
		Help:        "Total number of missing numeric cells filled with zero",
		ConstLabels: constLabels,
	})

	m.forecastsDegenerate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "forecasts_degenerate_total",
		Help:        "Total number of forecasts that fell back to a flat line",
		ConstLabels: constLabels,
	})

	m.historyDays = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "history_days",
		Help:        "Number of distinct historical days per upload",
		Buckets:     []float64{1, 2, 7, 14, 30, 90, 180, 365, 730},
		ConstLabels: constLabels,
	})

	// Job queue and worker metrics
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_size",
		Help:        "Current number of pipeline jobs waiting for a worker",
		ConstLabels: constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_capacity",
		Help:        "Maximum number of pipeline jobs that can wait for a worker",
		ConstLabels: constLabels,
	})

	m.queueRejected = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_rejected_total",
		Help:        "Total number of pipeline jobs refused by the queue by reason",
		ConstLabels: constLabels,
	}, []string{"reason"})

	m.queueWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "queue_wait_milliseconds",
		Help:        "Time a pipeline job waited for a worker in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.workersBusy = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "workers_busy",
		Help:        "Current number of workers running a pipeline job",
		ConstLabels: constLabels,
	})

	m.workersRunning = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "workers_running",
		Help:        "Number of started pipeline workers",
		ConstLabels: constLabels,
	})

	// Account and session metrics
	m.accountsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "accounts_created_total",
		Help:        "Total number of accounts created",
		ConstLabels: constLabels,
	})

	m.loginFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "login_failures_total",
		Help:        "Total number of rejected logins",
		ConstLabels: constLabels,
	})

	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "sessions_active",
		Help:        "Current number of live sessions",
		ConstLabels: constLabels,
	})

	m.rateLimited = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "uploads_rate_limited_total",
		Help:        "Total number of uploads rejected by the rate limiter",
		ConstLabels: constLabels,
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Error tracking
	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_component_total",
			Help:        "Total number of errors by component",
			ConstLabels: constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.errorRateByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_type_total",
			Help:        "Total number of errors by type",
			ConstLabels: constLabels,
		},
		[]string{"error_type", "severity"},
	)

	m.errorRateByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_endpoint_total",
			Help:        "Total number of errors by endpoint",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: constLabels,
	})
}

// Pipeline Metrics Functions.

// RecordUpload counts an upload with its outcome ("ok" or "error") and input format.
func RecordUpload(status, format string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.uploads.WithLabelValues(status, format).Inc()
}

// RecordPipelineError counts a failed pipeline invocation by error kind.
func RecordPipelineError(kind string) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.pipelineErrors.WithLabelValues(kind).Inc()
}

// RecordStageLatency records the latency of a single pipeline stage.
func RecordStageLatency(stage string, latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.stageLatency.WithLabelValues(stage).Observe(latencyMs)
}

// RecordPipelineLatency records end to end pipeline latency.
func RecordPipelineLatency(latencyMs float64) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.pipelineLatency.Observe(latencyMs)
}

// RecordRowsIngested adds n raw rows.
func RecordRowsIngested(n int) {
	if !globalManager.enabled.Load() || n <= 0 {
		return
	}
	globalManager.rowsIngested.Add(float64(n))
}

// RecordRowsDropped adds n rows dropped for reason.
func RecordRowsDropped(reason string, n int) {
	if !globalManager.enabled.Load() || n <= 0 {
		return
	}
	globalManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordValuesCoerced adds n coerced values for column.
func RecordValuesCoerced(column string, n int) {
	if !globalManager.enabled.Load() || n <= 0 {
		return
	}
	globalManager.valuesCoerced.WithLabelValues(column).Add(float64(n))
}

// RecordValuesFilled adds n filled cells.
func RecordValuesFilled(n int) {
	if !globalManager.enabled.Load() || n <= 0 {
		return
	}
	globalManager.valuesFilled.Add(float64(n))
}

// RecordForecastDegenerate increments the flat-forecast fallback counter.
func RecordForecastDegenerate() {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.forecastsDegenerate.Inc()
}

// RecordHistoryDays observes the number of distinct historical days of an upload.
func RecordHistoryDays(days int) {
	if !globalManager.enabled.Load() {
		return
	}
	globalManager.historyDays.Observe(float64(days))
}

// Job Queue and Worker Metrics Functions.

// UpdateQueueSize sets the number of waiting pipeline jobs.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueRejected counts a job refused by the queue ("full", "closed" or "cancelled").
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordQueueWait observes how long a job waited before a worker took it.
func RecordQueueWait(waitMs float64) {
	globalManager.queueWait.Observe(waitMs)
}

// UpdateWorkersBusy sets the number of workers running a job.
func UpdateWorkersBusy(count int) {
	globalManager.workersBusy.Set(float64(count))
}

// UpdateWorkersRunning sets the number of started workers.
func UpdateWorkersRunning(count int) {
	globalManager.workersRunning.Set(float64(count))
}

// Account and Session Metrics Functions.

// RecordAccountCreated increments the accounts created counter.
func RecordAccountCreated() {
	globalManager.accountsCreated.Inc()
}

// RecordLoginFailure increments the rejected logins counter.
func RecordLoginFailure() {
	globalManager.loginFailures.Inc()
}

// UpdateSessionsActive sets the current number of live sessions.
func UpdateSessionsActive(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordRateLimited increments the rate limited uploads counter.
func RecordRateLimited() {
	globalManager.rateLimited.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// SetEnabled toggles recording of pipeline metrics. Useful for offline tools.
func SetEnabled(enabled bool) {
	globalManager.enabled.Store(enabled)
}

// RefreshInterval returns how often gauges should be refreshed by the caller.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
