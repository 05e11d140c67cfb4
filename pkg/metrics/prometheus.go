// Package metrics provides Prometheus metrics for the fleetpulse pipeline.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	OutcomeFound  = "found"
	OutcomeAbsent = "absent"

	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Manager manages all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Ingestion
	rowsLoaded  *prometheus.CounterVec
	rowsDropped *prometheus.CounterVec
	parseErrors *prometheus.CounterVec

	// Cleaning & join
	stageDuration      *prometheus.HistogramVec
	extractionOutcomes *prometheus.CounterVec
	unmatchedVehicles  prometheus.Counter
	duplicateIDs       *prometheus.CounterVec
	enrichedRows       prometheus.Gauge

	// Row mapper
	workerCount            prometheus.Gauge
	workerPartitionLatency prometheus.Histogram

	// Runs
	pipelineRuns        *prometheus.CounterVec
	lastRunUnixSeconds  prometheus.Gauge
	lastRunDurationSecs prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPauseMillis  prometheus.Gauge
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
		namespace:        "fleetpulse",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
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

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.rowsLoaded = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_loaded_total"),
		Help:        "Rows read from a source table",
		ConstLabels: constLabels,
	}, []string{"table"})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_dropped_total"),
		Help:        "Event rows removed by cleaning, by reason",
		ConstLabels: constLabels,
	}, []string{"reason"})

	m.parseErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("parse_errors_total"),
		Help:        "Cells that failed to parse, by kind",
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stage_duration_seconds"),
		Help:        "Wall time of each pipeline stage",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"stage"})

	m.extractionOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("extractions_total"),
		Help:        "Nested comment lookups, by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.unmatchedVehicles = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("unmatched_vehicle_events_total"),
		Help:        "Events whose vehicle id is not in the registry",
		ConstLabels: constLabels,
	})

	m.duplicateIDs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("duplicate_ids_total"),
		Help:        "Repeated identifiers found by the audit, by table",
		ConstLabels: constLabels,
	}, []string{"table"})

	m.enrichedRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("enriched_rows"),
		Help:        "Rows in the last enriched table",
		ConstLabels: constLabels,
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_count"),
		Help:        "Workers used by the row mapper",
		ConstLabels: constLabels,
	})

	m.workerPartitionLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_partition_duration_seconds"),
		Help:        "Time a worker spent on one row partition",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.pipelineRuns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("runs_total"),
		Help:        "Pipeline runs, by status",
		ConstLabels: constLabels,
	}, []string{"status"})

	m.lastRunUnixSeconds = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("last_run_timestamp_seconds"),
		Help:        "Unix time the last run finished",
		ConstLabels: constLabels,
	})

	m.lastRunDurationSecs = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("last_run_duration_seconds"),
		Help:        "Wall time of the last run",
		ConstLabels: constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("requests_total"),
		Help:        "HTTP requests served, by endpoint, method and status",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   "http",
		Name:        m.name("request_duration_seconds"),
		Help:        "HTTP request latency",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method"})

	m.memoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("memory_bytes"),
		Help:        "Heap bytes allocated",
		ConstLabels: constLabels,
	})

	m.goroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("goroutines"),
		Help:        "Number of goroutines",
		ConstLabels: constLabels,
	})

	m.gcPauseMillis = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "system",
		Name:        m.name("gc_pause_avg_milliseconds"),
		Help:        "Average GC pause since process start",
		ConstLabels: constLabels,
	})
}

// RecordRowsLoaded adds n rows read from table.
func (m *Manager) RecordRowsLoaded(table string, n int) {
	if m.enabled {
		m.rowsLoaded.WithLabelValues(table).Add(float64(n))
	}
}

// RecordRowsDropped adds n rows removed for reason.
func (m *Manager) RecordRowsDropped(reason string, n int) {
	if m.enabled && n > 0 {
		m.rowsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordParseError counts one parse failure of kind.
func (m *Manager) RecordParseError(kind string) {
	if m.enabled {
		m.parseErrors.WithLabelValues(kind).Inc()
	}
}

// ObserveStageDuration records how long stage took.
func (m *Manager) ObserveStageDuration(stage string, d time.Duration) {
	if m.enabled {
		m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// RecordExtraction counts one lookup outcome.
func (m *Manager) RecordExtraction(found bool) {
	if !m.enabled {
		return
	}
	if found {
		m.extractionOutcomes.WithLabelValues(OutcomeFound).Inc()
		return
	}
	m.extractionOutcomes.WithLabelValues(OutcomeAbsent).Inc()
}

// RecordUnmatchedVehicles adds n events that missed the join.
func (m *Manager) RecordUnmatchedVehicles(n int) {
	if m.enabled && n > 0 {
		m.unmatchedVehicles.Add(float64(n))
	}
}

// RecordDuplicateIDs adds n repeated identifiers found in table.
func (m *Manager) RecordDuplicateIDs(table string, n int) {
	if m.enabled && n > 0 {
		m.duplicateIDs.WithLabelValues(table).Add(float64(n))
	}
}

// UpdateEnrichedRows sets the size of the last enriched table.
func (m *Manager) UpdateEnrichedRows(n int) {
	if m.enabled {
		m.enrichedRows.Set(float64(n))
	}
}

// UpdateWorkerCount sets the row mapper width.
func (m *Manager) UpdateWorkerCount(n int) {
	if m.enabled {
		m.workerCount.Set(float64(n))
	}
}

// RecordWorkerPartitionLatency records the time spent on one partition.
func (m *Manager) RecordWorkerPartitionLatency(d time.Duration) {
	if m.enabled {
		m.workerPartitionLatency.Observe(d.Seconds())
	}
}

// RecordPipelineRun counts a finished run and stamps its duration.
func (m *Manager) RecordPipelineRun(status string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.pipelineRuns.WithLabelValues(status).Inc()
	m.lastRunUnixSeconds.Set(float64(time.Now().Unix()))
	m.lastRunDurationSecs.Set(d.Seconds())
}

// RecordHTTPRequest counts one served request and its latency.
func (m *Manager) RecordHTTPRequest(endpoint, method string, status int, d time.Duration) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func (m *Manager) UpdateSystemMemoryUsage(bytes uint64) {
	if m.enabled {
		m.memoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func (m *Manager) UpdateSystemGoroutineCount(count int) {
	if m.enabled {
		m.goroutineCount.Set(float64(count))
	}
}

// RecordSystemGCPauseTime sets the average GC pause in milliseconds.
func (m *Manager) RecordSystemGCPauseTime(pauseMs float64) {
	if m.enabled {
		m.gcPauseMillis.Set(pauseMs)
	}
}

// Package-level helpers delegate to the global manager.

// RecordRowsLoaded adds n rows read from table.
func RecordRowsLoaded(table string, n int) { globalManager.RecordRowsLoaded(table, n) }

// RecordRowsDropped adds n rows removed for reason.
func RecordRowsDropped(reason string, n int) { globalManager.RecordRowsDropped(reason, n) }

// RecordParseError counts one parse failure of kind.
func RecordParseError(kind string) { globalManager.RecordParseError(kind) }

// ObserveStageDuration records how long stage took.
func ObserveStageDuration(stage string, d time.Duration) {
	globalManager.ObserveStageDuration(stage, d)
}

// RecordExtraction counts one lookup outcome.
func RecordExtraction(found bool) { globalManager.RecordExtraction(found) }

// RecordUnmatchedVehicles adds n events that missed the join.
func RecordUnmatchedVehicles(n int) { globalManager.RecordUnmatchedVehicles(n) }

// RecordDuplicateIDs adds n repeated identifiers found in table.
func RecordDuplicateIDs(table string, n int) { globalManager.RecordDuplicateIDs(table, n) }

// UpdateEnrichedRows sets the size of the last enriched table.
func UpdateEnrichedRows(n int) { globalManager.UpdateEnrichedRows(n) }

// UpdateWorkerCount sets the row mapper width.
func UpdateWorkerCount(n int) { globalManager.UpdateWorkerCount(n) }

// RecordWorkerPartitionLatency records the time spent on one partition.
func RecordWorkerPartitionLatency(d time.Duration) { globalManager.RecordWorkerPartitionLatency(d) }

// RecordPipelineRun counts a finished run and stamps its duration.
func RecordPipelineRun(status string, d time.Duration) { globalManager.RecordPipelineRun(status, d) }

// RecordHTTPRequest counts one served request and its latency.
func RecordHTTPRequest(endpoint, method string, status int, d time.Duration) {
	globalManager.RecordHTTPRequest(endpoint, method, status, d)
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.UpdateSystemMemoryUsage(bytes) }

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) { globalManager.UpdateSystemGoroutineCount(count) }

// RecordSystemGCPauseTime sets the average GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.RecordSystemGCPauseTime(pauseMs) }

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
