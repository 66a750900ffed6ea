package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the agent pool.
type Metrics struct {
	CoordinationsTotal  *prometheus.CounterVec
	CoordinationLatency *prometheus.HistogramVec
	DispatchLatency     *prometheus.HistogramVec
	AgentFailures       *prometheus.CounterVec
}

// New creates a new Metrics instance with all pool metrics registered.
func New() *Metrics {
	return &Metrics{
		CoordinationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudlens_pool_coordinations_total",
			Help: "Total coordination calls by strategy and status",
		}, []string{"strategy", "status"}),

		CoordinationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudlens_pool_coordination_duration_seconds",
			Help:    "Duration of full coordination calls by strategy",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"strategy"}),

		DispatchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudlens_pool_dispatch_duration_seconds",
			Help:    "Duration of individual agent dispatches",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"agent"}),

		AgentFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudlens_pool_agent_failures_total",
			Help: "Total failed agent dispatches by agent and failure kind",
		}, []string{"agent", "kind"}),
	}
}

// IncrementCoordination records one coordination call.
func (m *Metrics) IncrementCoordination(strategy, status string) {
	if m != nil {
		m.CoordinationsTotal.WithLabelValues(strategy, status).Inc()
	}
}

// ObserveCoordinationLatency records the duration of a coordination call.
func (m *Metrics) ObserveCoordinationLatency(strategy string, d time.Duration) {
	if m != nil {
		m.CoordinationLatency.WithLabelValues(strategy).Observe(d.Seconds())
	}
}

// ObserveDispatchLatency records the duration of one agent dispatch.
func (m *Metrics) ObserveDispatchLatency(agent string, d time.Duration) {
	if m != nil {
		m.DispatchLatency.WithLabelValues(agent).Observe(d.Seconds())
	}
}

// IncrementAgentFailure records a failed dispatch.
func (m *Metrics) IncrementAgentFailure(agent, kind string) {
	if m != nil {
		m.AgentFailures.WithLabelValues(agent, kind).Inc()
	}
}
