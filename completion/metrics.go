package completion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides Prometheus-compatible metrics collection for
// completion transforms in production environments.
//
// Metrics exposed (all namespaced with "completion_"):
//
// 1. transform_duration_seconds (histogram): End-to-end transform
// duration. Labels: scope.
// Use: P50/P95/P99 latency analysis per content scope.
//
// 2. nodes_visited_total (counter): Nodes visited across all passes.
// Labels: scope.
// Use: Track tree sizes and traversal cost over time.
//
// 3. exam_overrides_total (counter): Exam subtrees forced complete.
// Labels: scope.
// Use: Monitor how often the forced-completion override fires.
//
// 4. transform_errors_total (counter): Failed transform calls.
// Labels: scope, reason (records, exams, structure).
// Use: Alert on collaborator failures.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := completion.NewMetrics(registry)
//	tr := completion.New(completion.WithMetrics(metrics))
//
//	// Expose via HTTP for Prometheus scraping:
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
//
// Thread-safe: all methods use atomic operations or mutex protection.
type Metrics struct {
	transformDuration *prometheus.HistogramVec
	nodesVisited      *prometheus.CounterVec
	examOverrides     *prometheus.CounterVec
	transformErrors   *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewMetrics creates and registers all completion transform metrics
// with the provided Prometheus registry.
//
// Parameters:
//   - registry: Prometheus registry to register metrics with; nil uses
//     prometheus.DefaultRegisterer.
//
// Histogram buckets are tuned for in-memory tree traversals (sub-ms to
// a few seconds).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	m := &Metrics{enabled: true}

	m.transformDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "completion",
		Name:      "transform_duration_seconds",
		Help:      "End-to-end duration of a completion transform call",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"scope"})

	m.nodesVisited = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "completion",
		Name:      "nodes_visited_total",
		Help:      "Cumulative count of nodes visited across transform passes",
	}, []string{"scope"})

	m.examOverrides = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "completion",
		Name:      "exam_overrides_total",
		Help:      "Exam subtrees forced complete by the override pass",
	}, []string{"scope"})

	m.transformErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "completion",
		Name:      "transform_errors_total",
		Help:      "Failed transform calls by failure reason",
	}, []string{"scope", "reason"}) // reason: records, exams, structure

	return m
}

// ObserveTransform records the duration of one transform call.
func (m *Metrics) ObserveTransform(scope string, d time.Duration) {
	if !m.isEnabled() {
		return
	}
	m.transformDuration.WithLabelValues(scope).Observe(d.Seconds())
}

// AddNodesVisited adds to the visited-node counter for a scope.
func (m *Metrics) AddNodesVisited(scope string, n int) {
	if !m.isEnabled() {
		return
	}
	m.nodesVisited.WithLabelValues(scope).Add(float64(n))
}

// IncExamOverrides increments the exam override counter for a scope.
func (m *Metrics) IncExamOverrides(scope string) {
	if !m.isEnabled() {
		return
	}
	m.examOverrides.WithLabelValues(scope).Inc()
}

// IncTransformErrors increments the error counter for a scope and
// failure reason ("records", "exams", "structure").
func (m *Metrics) IncTransformErrors(scope, reason string) {
	if !m.isEnabled() {
		return
	}
	m.transformErrors.WithLabelValues(scope, reason).Inc()
}

// Disable temporarily disables metric recording (useful for testing).
func (m *Metrics) Disable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = false
}

// Enable re-enables metric recording after Disable().
func (m *Metrics) Enable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = true
}

func (m *Metrics) isEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}
