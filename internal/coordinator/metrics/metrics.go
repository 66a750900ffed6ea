package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the analysis pipeline.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec
	AnalysisLatency  prometheus.Histogram
	PhaseLatency     *prometheus.HistogramVec
	AgentCallLatency *prometheus.HistogramVec
	EscalationsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all coordinator metrics registered.
func New() *Metrics {
	return &Metrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudlens_analyses_total",
			Help: "Total entity analyses by outcome",
		}, []string{"outcome"}),

		AnalysisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraudlens_analysis_duration_seconds",
			Help:    "Duration of full analyze-entity calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		PhaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudlens_analysis_phase_duration_seconds",
			Help:    "Duration of each analysis pipeline phase",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"phase"}),

		AgentCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fraudlens_analysis_agent_call_duration_seconds",
			Help:    "Duration of individual domain agent calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"domain", "operation"}),

		EscalationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudlens_analysis_escalations_total",
			Help: "Total analyses escalated to human review by reason",
		}, []string{"reason"}),
	}
}

// IncrementAnalysis records one analyze-entity outcome.
func (m *Metrics) IncrementAnalysis(outcome string) {
	if m != nil {
		m.AnalysesTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveAnalysisLatency records the duration of one full analysis.
func (m *Metrics) ObserveAnalysisLatency(d time.Duration) {
	if m != nil {
		m.AnalysisLatency.Observe(d.Seconds())
	}
}

// ObservePhaseLatency records the duration of one pipeline phase.
func (m *Metrics) ObservePhaseLatency(phase string, d time.Duration) {
	if m != nil {
		m.PhaseLatency.WithLabelValues(phase).Observe(d.Seconds())
	}
}

// ObserveAgentCall records the duration of one domain agent call.
func (m *Metrics) ObserveAgentCall(domain, operation string, d time.Duration) {
	if m != nil {
		m.AgentCallLatency.WithLabelValues(domain, operation).Observe(d.Seconds())
	}
}

// IncrementEscalation records one human-review escalation.
func (m *Metrics) IncrementEscalation(reason string) {
	if m != nil {
		m.EscalationsTotal.WithLabelValues(reason).Inc()
	}
}
