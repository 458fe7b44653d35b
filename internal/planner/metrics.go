package planner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the planner's Prometheus collectors.
type Metrics struct {
	// Runs counts Generate calls. Labels: outcome (generated, cached, error)
	Runs *prometheus.CounterVec
	// Duration measures plan generation time, cache hits excluded.
	Duration prometheus.Histogram
	// Entries tracks the number of entries per generated plan.
	Entries prometheus.Histogram
	// WastedSegments counts segments left empty across all plans.
	WastedSegments prometheus.Counter
	// DroppedRecords counts snapshot records dropped while building graphs.
	DroppedRecords prometheus.Counter
}

// NewMetrics registers the planner collectors with reg. A nil reg creates a
// private registry, which keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "runs_total",
			Help:      "Total plan requests by outcome",
		}, []string{"outcome"}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "generate_duration_seconds",
			Help:      "Time to build and schedule a plan",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		Entries: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "planner",
			Name:      "plan_entries",
			Help:      "Number of entries per generated plan",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		WastedSegments: f.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "wasted_segments_total",
			Help:      "Segments left empty because nothing was schedulable",
		}),
		DroppedRecords: f.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Name:      "dropped_records_total",
			Help:      "Snapshot records dropped for dangling references",
		}),
	}
}
