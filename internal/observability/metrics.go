package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the Prometheus collectors the service updates.
type Metrics struct {
	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
	errors        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	assignments   *prometheus.CounterVec
	balanceMoves  prometheus.Counter
	balanceSkips  prometheus.Counter
	eventFailures *prometheus.CounterVec
}

// NewMetrics registers collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"path", "method", "status"}),
		requestTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "complaint_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_http_errors_total",
			Help: "HTTP errors by error code",
		}, []string{"path", "method", "code"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_transitions_total",
			Help: "Lifecycle commands by event and outcome",
		}, []string{"event", "outcome"}),
		assignments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_assignments_total",
			Help: "Assignments by selection mode",
		}, []string{"selection"}),
		balanceMoves: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaint_balance_moves_total",
			Help: "Complaints moved by workload balancing",
		}),
		balanceSkips: factory.NewCounter(prometheus.CounterOpts{
			Name: "complaint_balance_skips_total",
			Help: "Balancing moves skipped after a concurrent change",
		}),
		eventFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complaint_event_emit_failures_total",
			Help: "Events whose emission returned an error",
		}, []string{"type"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(path, method, code).Inc()
}

// RecordTransition counts a lifecycle command. outcome is "ok" or an
// error code.
func (m *Metrics) RecordTransition(event, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event, outcome).Inc()
}

// RecordAssignment counts an assignment by how the assignee was chosen.
func (m *Metrics) RecordAssignment(selection string) {
	if m == nil {
		return
	}
	m.assignments.WithLabelValues(selection).Inc()
}

// RecordBalance adds the result of one balancing run.
func (m *Metrics) RecordBalance(moved, skipped int) {
	if m == nil {
		return
	}
	m.balanceMoves.Add(float64(moved))
	m.balanceSkips.Add(float64(skipped))
}

// RecordEmitFailure counts an event the emitter rejected.
func (m *Metrics) RecordEmitFailure(eventType string) {
	if m == nil {
		return
	}
	m.eventFailures.WithLabelValues(eventType).Inc()
}
