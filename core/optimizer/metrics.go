package optimizer

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsPlaced        *prometheus.CounterVec
	savingsTotal      prometheus.Counter
	infeasibleWindows prometheus.Counter
	passDuration      prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Histogram) {
	placed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_jobs_placed_total",
			Help: "Jobs placed by the optimizer by class and outcome",
		},
		[]string{"class", "outcome"},
	)
	savings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "optimizer_cost_savings_total",
			Help: "Accumulated energy cost savings of committed placements",
		},
	)
	infeasible := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "optimizer_infeasible_windows_total",
			Help: "Jobs whose feasible window was empty",
		},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "optimizer_pass_duration_seconds",
			Help:    "Duration of a full optimization pass",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
	return placed, savings, infeasible, dur
}

func init() {
	jobsPlaced, savingsTotal, infeasibleWindows, passDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers optimizer metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(jobsPlaced, savingsTotal, infeasibleWindows, passDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	jobsPlaced, savingsTotal, infeasibleWindows, passDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func observeResult(r Result) {
	jobsPlaced.WithLabelValues(r.Class, outcome(r)).Inc()
	if r.Infeasible {
		infeasibleWindows.Inc()
	}
	if r.Savings > 0 {
		savingsTotal.Add(r.Savings)
	}
}

func outcome(r Result) string {
	switch {
	case r.Fixed:
		return "fixed"
	case r.Infeasible:
		return "infeasible"
	case r.DelayMinutes != 0:
		return "shifted"
	default:
		return "unchanged"
	}
}
