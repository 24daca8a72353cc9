// Package metrics provides Prometheus metrics for the frontdesk webhook core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Ingestion metrics
	eventsReceived        *prometheus.CounterVec
	eventsDuplicate       prometheus.Counter
	resultReplays         prometheus.Counter
	normalizationFailures *prometheus.CounterVec

	// Classification metrics
	classifications   *prometheus.CounterVec
	classifierErrors  prometheus.Counter
	classifierLatency prometheus.Histogram

	// Dispatch metrics
	dispatchLatency  prometheus.Histogram
	dispatchFailures prometheus.Counter

	// Calendar metrics
	bookingsCreated   prometheus.Counter
	bookingConflicts  prometheus.Counter
	bookingsCancelled prometheus.Counter

	// Knowledge base metrics
	faqAnswered  prometheus.Counter
	faqEscalated prometheus.Counter

	// Response metrics
	responsesSent  *prometheus.CounterVec
	notifierErrors prometheus.Counter

	// Audit and admission metrics
	auditAppendFailures prometheus.Counter
	staleReadmissions   prometheus.Counter
	recordsTotal        prometheus.Gauge

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error tracking by component
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry so the default Go collectors do not pollute exposition.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "frontdesk",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // metric declarations are inherently long
	auto := promauto.With(m.registry)

	m.eventsReceived = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_received_total",
			Help:      "Total inbound webhook deliveries accepted for processing, by channel",
		},
		[]string{"channel"},
	)

	m.eventsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_duplicate_total",
		Help:      "Total duplicate deliveries short-circuited by the admission gate",
	})

	m.resultReplays = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "result_replays_total",
		Help:      "Total completed results replayed verbatim for resent deliveries",
	})

	m.normalizationFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "normalization_failures_total",
			Help:      "Total payloads rejected by the normalizer, by reason",
		},
		[]string{"reason"},
	)

	m.classifications = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "classifications_total",
			Help:      "Total intent classifications, by resulting kind",
		},
		[]string{"kind"},
	)

	m.classifierErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifier_errors_total",
		Help:      "Total classifier oracle failures degraded to the unknown intent",
	})

	m.classifierLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "classifier_latency_milliseconds",
		Help:      "Histogram of classifier oracle call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.dispatchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_latency_milliseconds",
		Help:      "Histogram of classify-route-execute latency per admitted event",
		Buckets:   m.histogramBuckets,
	})

	m.dispatchFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dispatch_failures_total",
		Help:      "Total admitted events that finished with a failed record",
	})

	m.bookingsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bookings_created_total",
		Help:      "Total calendar bookings created",
	})

	m.bookingConflicts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "booking_conflicts_total",
		Help:      "Total requested slots rejected because an existing booking overlapped",
	})

	m.bookingsCancelled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bookings_cancelled_total",
		Help:      "Total calendar bookings cancelled",
	})

	m.faqAnswered = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "faq_answered_total",
		Help:      "Total FAQ questions answered from the knowledge base",
	})

	m.faqEscalated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "faq_escalated_total",
		Help:      "Total FAQ questions that fell through to the escalation fallback",
	})

	m.responsesSent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "responses_sent_total",
			Help:      "Total responses delivered back over the originating channel",
		},
		[]string{"channel"},
	)

	m.notifierErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "notifier_errors_total",
		Help:      "Total failures delivering a response over the originating channel",
	})

	m.auditAppendFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "audit_append_failures_total",
		Help:      "Total audit sink append failures (logged, never blocking)",
	})

	m.staleReadmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_readmissions_total",
		Help:      "Total stuck in-progress records re-admitted after the staleness threshold",
	})

	m.recordsTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "processing_records_total",
		Help:      "Total processing records held by the admission store",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current size of the dispatch queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Configured capacity of the dispatch queue",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_utilization",
		Help:      "Dispatch queue utilization ratio (0.0 to 1.0)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueues_total",
		Help:      "Total events enqueued for dispatch",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_dequeues_total",
		Help:      "Total events handed to workers",
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_enqueue_errors_total",
		Help:      "Total enqueue rejections (backpressure, closed queue)",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Current number of dispatch workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_processing_latency_milliseconds",
		Help:      "Histogram of full worker processing latency per event",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total worker-level processing errors",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by endpoint, method and status code",
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

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total errors by component and error type",
		},
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Histogram of average GC pause time in milliseconds",
		Buckets:   m.histogramBuckets,
	})
}

// GetRegistry returns the registry metrics are exposed from.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level recording helpers delegating to the global manager.

func RecordEventReceived(channel string) { globalManager.eventsReceived.WithLabelValues(channel).Inc() }
func RecordEventDuplicate()             { globalManager.eventsDuplicate.Inc() }
func RecordResultReplay()               { globalManager.resultReplays.Inc() }
func RecordNormalizationFailure(reason string) {
	globalManager.normalizationFailures.WithLabelValues(reason).Inc()
}

func RecordClassification(kind string) {
	globalManager.classifications.WithLabelValues(kind).Inc()
}
func RecordClassifierError()             { globalManager.classifierErrors.Inc() }
func RecordClassifierLatency(ms float64) { globalManager.classifierLatency.Observe(ms) }

func RecordDispatchLatency(ms float64) { globalManager.dispatchLatency.Observe(ms) }
func RecordDispatchFailure()           { globalManager.dispatchFailures.Inc() }

func RecordBookingCreated()   { globalManager.bookingsCreated.Inc() }
func RecordBookingConflict()  { globalManager.bookingConflicts.Inc() }
func RecordBookingCancelled() { globalManager.bookingsCancelled.Inc() }

func RecordFAQAnswered()  { globalManager.faqAnswered.Inc() }
func RecordFAQEscalated() { globalManager.faqEscalated.Inc() }

func RecordResponseSent(channel string) {
	globalManager.responsesSent.WithLabelValues(channel).Inc()
}
func RecordNotifierError() { globalManager.notifierErrors.Inc() }

func RecordAuditAppendFailure() { globalManager.auditAppendFailures.Inc() }
func RecordStaleReadmission()   { globalManager.staleReadmissions.Inc() }
func UpdateRecordsTotal(n int)  { globalManager.recordsTotal.Set(float64(n)) }

func UpdateQueueSize(n int)           { globalManager.queueSize.Set(float64(n)) }
func UpdateQueueCapacity(n int)       { globalManager.queueCapacity.Set(float64(n)) }
func UpdateQueueUtilization(r float64) { globalManager.queueUtilization.Set(r) }
func RecordQueueEnqueue()             { globalManager.queueEnqueues.Inc() }
func RecordQueueDequeue()             { globalManager.queueDequeues.Inc() }
func RecordQueueEnqueueError()        { globalManager.queueEnqueueErrors.Inc() }

func UpdateWorkerCount(n int)                 { globalManager.workerCount.Set(float64(n)) }
func RecordWorkerProcessingLatency(ms float64) { globalManager.workerProcessingLatency.Observe(ms) }
func RecordWorkerError()                      { globalManager.workerErrors.Inc() }

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}
func UpdateSystemGoroutineCount(n int)   { globalManager.systemGoroutineCount.Set(float64(n)) }
func RecordSystemGCPauseTime(ms float64) { globalManager.systemGCPauseTime.Observe(ms) }
