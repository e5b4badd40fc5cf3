// Package metrics provides Prometheus metrics for the spellcast runtime.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the spellcast runtime.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Casting
	castsTotal          *prometheus.CounterVec
	arbitrationOutcomes *prometheus.CounterVec
	classificationScore *prometheus.HistogramVec

	// Draw sessions
	sessionPoints   prometheus.Histogram
	sessionDuration prometheus.Histogram
	sessionsStarted prometheus.Counter
	timeScale       prometheus.Gauge
	drawingState    prometheus.Gauge

	// Cast queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors *prometheus.CounterVec

	// Spawn workers
	spawnLatency prometheus.Histogram
	spawnErrors  prometheus.Counter
	workerCount  prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "spellcast",
		subsystem:        "caster",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	if !m.enabled {
		// Collectors still exist so recording calls stay nil-safe, they are
		// just never exposed.
		auto = promauto.With(nil)
	}
	constLabels := prometheus.Labels(m.customLabels)

	m.castsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("casts_total"),
		Help:        "Casts dispatched by spell, glitch variant and fallback selection",
		ConstLabels: constLabels,
	}, []string{"spell", "glitch", "fallback"})

	m.arbitrationOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("arbitration_outcomes_total"),
		Help:        "Arbitration results: matched, fallback, too_short, empty_registry",
		ConstLabels: constLabels,
	}, []string{"result"})

	m.classificationScore = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("classification_score"),
		Help:        "Template scores produced while arbitrating a gesture",
		Buckets:     []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		ConstLabels: constLabels,
	}, []string{"gesture"})

	m.sessionPoints = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("session_points"),
		Help:        "Number of accepted samples per draw session",
		Buckets:     []float64{0, 5, 10, 15, 25, 50, 100, 200, 400},
		ConstLabels: constLabels,
	})

	m.sessionDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("session_duration_seconds"),
		Help:        "Real-time duration of draw sessions",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.sessionsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("sessions_started_total"),
		Help:        "Draw sessions entered",
		ConstLabels: constLabels,
	})

	m.timeScale = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("time_scale"),
		Help:        "Live smoothed simulation time scale",
		ConstLabels: constLabels,
	})

	m.drawingState = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("drawing_state"),
		Help:        "Current draw state: 0 idle, 1 drawing, 2 stroking",
		ConstLabels: constLabels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cast_queue_size"),
		Help:        "Casts waiting for the spawn workers",
		ConstLabels: constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cast_queue_capacity"),
		Help:        "Maximum casts buffered before backpressure",
		ConstLabels: constLabels,
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cast_queue_enqueue_errors_total"),
		Help:        "Casts rejected by the queue by reason",
		ConstLabels: constLabels,
	}, []string{"reason"})

	m.spawnLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("spawn_latency_milliseconds"),
		Help:        "Time the effect spawner took per cast",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.spawnErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("spawn_errors_total"),
		Help:        "Casts the effect spawner failed to realize",
		ConstLabels: constLabels,
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("spawn_worker_count"),
		Help:        "Running spawn workers",
		ConstLabels: constLabels,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_requests_total"),
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("http_request_duration_milliseconds"),
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	}, []string{"endpoint", "method", "status_code"})
}

// Casting.

// RecordCast counts a dispatched cast.
func RecordCast(spell string, glitch, fallback bool) {
	globalManager.castsTotal.WithLabelValues(spell, strconv.FormatBool(glitch), strconv.FormatBool(fallback)).Inc()
}

// RecordArbitration counts an arbitration result.
func RecordArbitration(result string) {
	globalManager.arbitrationOutcomes.WithLabelValues(result).Inc()
}

// RecordClassificationScore observes a template score for the given gesture.
func RecordClassificationScore(gesture string, score float64) {
	globalManager.classificationScore.WithLabelValues(gesture).Observe(score)
}

// Draw sessions.

// RecordSessionStarted counts a new draw session.
func RecordSessionStarted() {
	globalManager.sessionsStarted.Inc()
}

// RecordSessionEnded observes the sample count and duration of a finished session.
func RecordSessionEnded(points int, duration time.Duration) {
	globalManager.sessionPoints.Observe(float64(points))
	globalManager.sessionDuration.Observe(duration.Seconds())
}

// UpdateTimeScale sets the live time scale.
func UpdateTimeScale(scale float64) {
	globalManager.timeScale.Set(scale)
}

// UpdateDrawingState sets the draw state gauge.
func UpdateDrawingState(state int) {
	globalManager.drawingState.Set(float64(state))
}

// Cast queue.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError counts a rejected cast.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// Spawn workers.

// RecordSpawnLatency records spawner latency in milliseconds.
func RecordSpawnLatency(latencyMs float64) {
	globalManager.spawnLatency.Observe(latencyMs)
}

// RecordSpawnError counts a failed spawn.
func RecordSpawnError() {
	globalManager.spawnErrors.Inc()
}

// UpdateWorkerCount sets the running spawn worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// HTTP.

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
