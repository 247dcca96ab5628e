// Package metrics provides prometheus instrumentation for disclosure analyses.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records analysis latencies and outcomes. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	AnalysisLatency *prometheus.HistogramVec
	AnalysisOutcome *prometheus.CounterVec
	AnomaliesFound  *prometheus.CounterVec
	CacheLookups    *prometheus.CounterVec
	SponsorsSkipped prometheus.Counter
}

// New registers all analytics metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AnalysisLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "disclosure_analysis_duration_seconds",
			Help:    "Duration of sponsor analyses by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),

		AnalysisOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disclosure_analysis_total",
			Help: "Sponsor analyses by operation and outcome",
		}, []string{"operation", "outcome"}), // outcome: "ok", "not_found", "error"

		AnomaliesFound: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disclosure_anomalies_total",
			Help: "Detected anomalies by type and severity",
		}, []string{"type", "severity"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "disclosure_cache_lookups_total",
			Help: "Analysis cache lookups by kind and result",
		}, []string{"kind", "result"}), // result: "hit", "miss"

		SponsorsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "disclosure_population_skipped_sponsors_total",
			Help: "Sponsors omitted from population summaries after a failed analysis",
		}),
	}
}

// ObserveAnalysis records the duration and outcome of one operation.
func (m *Metrics) ObserveAnalysis(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysisLatency.WithLabelValues(operation).Observe(d.Seconds())
	m.AnalysisOutcome.WithLabelValues(operation, outcome).Inc()
}

// IncAnomaly counts one detected anomaly.
func (m *Metrics) IncAnomaly(anomalyType, severity string) {
	if m != nil {
		m.AnomaliesFound.WithLabelValues(anomalyType, severity).Inc()
	}
}

// CacheLookup counts one cache lookup.
func (m *Metrics) CacheLookup(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

// IncSkipped counts one sponsor dropped from a population summary.
func (m *Metrics) IncSkipped() {
	if m != nil {
		m.SponsorsSkipped.Inc()
	}
}

// WriteTextfile writes the gathered metrics in the node_exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
