package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the investigation state store.
type Metrics struct {
	UpdatesTotal   *prometheus.CounterVec
	ConflictsTotal prometheus.Counter
	UpdateRetries  prometheus.Histogram
	CacheLookups   *prometheus.CounterVec
	ReadLatency    prometheus.Histogram
}

// New creates a new Metrics instance with all investigation metrics registered.
func New() *Metrics {
	return &Metrics{
		UpdatesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudlens_investigation_updates_total",
			Help: "Total investigation update attempts by outcome",
		}, []string{"outcome"}),

		ConflictsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fraudlens_investigation_conflicts_total",
			Help: "Total optimistic concurrency conflicts observed",
		}),

		UpdateRetries: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraudlens_investigation_update_retries",
			Help:    "Retries needed per successful update",
			Buckets: []float64{0, 1, 2, 3, 5},
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fraudlens_investigation_cache_lookups_total",
			Help: "Snapshot cache lookups by result",
		}, []string{"result"}),

		ReadLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fraudlens_investigation_read_duration_seconds",
			Help:    "Duration of investigation reads including cache path",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementUpdate records one update attempt outcome.
func (m *Metrics) IncrementUpdate(outcome string) {
	if m != nil {
		m.UpdatesTotal.WithLabelValues(outcome).Inc()
	}
}

// IncrementConflict records one version conflict.
func (m *Metrics) IncrementConflict() {
	if m != nil {
		m.ConflictsTotal.Inc()
	}
}

// ObserveRetries records how many retries a successful update needed.
func (m *Metrics) ObserveRetries(n int) {
	if m != nil {
		m.UpdateRetries.Observe(float64(n))
	}
}

// IncrementCacheLookup records one snapshot cache lookup.
func (m *Metrics) IncrementCacheLookup(result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(result).Inc()
	}
}

// ObserveReadLatency records the duration of one read.
func (m *Metrics) ObserveReadLatency(d time.Duration) {
	if m != nil {
		m.ReadLatency.Observe(d.Seconds())
	}
}
