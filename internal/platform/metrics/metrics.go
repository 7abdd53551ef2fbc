package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Workflow labels.
const (
	WorkflowVerification = "verification"
	WorkflowIssuance     = "issuance"
	WorkflowIssuanceJob  = "issuance_async"
)

// Metrics holds all Prometheus metrics for the orchestration core.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Submissions      *prometheus.CounterVec
	Outcomes         *prometheus.CounterVec
	SupersededDrops  *prometheus.CounterVec
	PollAttempts     *prometheus.CounterVec
	RequestLatency   *prometheus.HistogramVec
	ActiveJobs       prometheus.Gauge
	MockBackendCalls *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration panics.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credguard_submissions_total",
			Help: "Total number of submissions started, labeled by workflow",
		}, []string{"workflow"}),
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credguard_outcomes_total",
			Help: "Total number of settled submissions, labeled by workflow and error kind (ok on success)",
		}, []string{"workflow", "kind"}),
		SupersededDrops: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credguard_superseded_results_total",
			Help: "Total number of results dropped because a newer submission replaced them",
		}, []string{"workflow"}),
		PollAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credguard_poll_attempts_total",
			Help: "Total number of status polls, labeled by result",
		}, []string{"result"}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credguard_backend_request_seconds",
			Help:    "Latency of backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "credguard_active_jobs",
			Help: "Current number of asynchronous issuance jobs being polled",
		}),
		MockBackendCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "credguard_mock_backend_requests_total",
			Help: "Total number of requests served by the mock backend, labeled by route and status",
		}, []string{"route", "status"}),
	}
}

// IncrementSubmissions counts a submission for workflow.
func (m *Metrics) IncrementSubmissions(workflow string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(workflow).Inc()
}

// IncrementOutcome counts a settled submission. An empty kind means success.
func (m *Metrics) IncrementOutcome(workflow, kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "ok"
	}
	m.Outcomes.WithLabelValues(workflow, kind).Inc()
}

func (m *Metrics) IncrementSuperseded(workflow string) {
	if m == nil {
		return
	}
	m.SupersededDrops.WithLabelValues(workflow).Inc()
}

func (m *Metrics) IncrementPollAttempts(result string) {
	if m == nil {
		return
	}
	m.PollAttempts.WithLabelValues(result).Inc()
}

// ObserveRequestLatency records the latency for a backend endpoint.
func (m *Metrics) ObserveRequestLatency(endpoint string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (m *Metrics) IncrementActiveJobs() {
	if m == nil {
		return
	}
	m.ActiveJobs.Inc()
}

func (m *Metrics) DecrementActiveJobs() {
	if m == nil {
		return
	}
	m.ActiveJobs.Dec()
}

// IncrementMockBackendCalls counts a request handled by the mock backend.
func (m *Metrics) IncrementMockBackendCalls(route string, status int) {
	if m == nil {
		return
	}
	m.MockBackendCalls.WithLabelValues(route, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
