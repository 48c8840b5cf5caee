// Package metrics exposes consolidation counters through Prometheus.
//
// Metrics are registered on a private registry so several sessions (and
// tests) can coexist in one process. A nil *Metrics is valid and records
// nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal     *prometheus.CounterVec
	RunDuration   prometheus.Histogram
	Eliminated    prometheus.Counter
	Merged        prometheus.Counter
	RecordsMoved  prometheus.Counter
	RecordsFilled prometheus.Counter
}

// New creates and registers the consolidation metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "baselines_consolidation_runs_total",
				Help: "Total number of consolidation runs",
			},
			[]string{"outcome"},
		),

		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "baselines_consolidation_duration_seconds",
				Help:    "Duration of consolidation runs",
				Buckets: prometheus.DefBuckets,
			},
		),

		Eliminated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "baselines_baselines_eliminated_total",
				Help: "Total number of redundant baselines deleted",
			},
		),

		Merged: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "baselines_baselines_merged_total",
				Help: "Total number of baselines merged away into a consolidated baseline",
			},
		),

		RecordsMoved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "baselines_change_records_moved_total",
				Help: "Total number of change records moved into a merge target",
			},
		),

		RecordsFilled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "baselines_change_records_filled_total",
				Help: "Total number of properties filled into existing target records",
			},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// AddEliminated counts deleted redundant baselines.
func (m *Metrics) AddEliminated(n int) {
	if m == nil {
		return
	}
	m.Eliminated.Add(float64(n))
}

// AddMerge counts one merge: baselines merged away, records moved and
// properties filled.
func (m *Metrics) AddMerge(mergedAway, moved, filled int) {
	if m == nil {
		return
	}
	m.Merged.Add(float64(mergedAway))
	m.RecordsMoved.Add(float64(moved))
	m.RecordsFilled.Add(float64(filled))
}

// WriteTextfile writes every metric in the text exposition format, for
// pickup by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
