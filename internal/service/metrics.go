package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"workbench/internal/model"
)

// Metrics counts and times analysis runs. A nil *Metrics records nothing.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the analysis metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workbench_analyses_total",
				Help: "Total number of analysis runs by kind and outcome.",
			},
			[]string{"kind", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workbench_analysis_duration_seconds",
				Help:    "Duration of analysis runs in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.runs, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind model.AnalysisKind, status model.AnalysisStatus, start time.Time) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(kind), string(status)).Inc()
	m.duration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}
