package refresh

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	refreshRuns       *prometheus.CounterVec
	refreshHops       prometheus.Counter
	refreshUpdates    *prometheus.CounterVec
	refreshBranches   prometheus.Counter
	refreshMergeSkips prometheus.Counter
	refreshDuration   prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, prometheus.Counter, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Histogram) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_refresh_runs_total",
			Help: "Number of link refresh runs by outcome",
		},
		[]string{"result"},
	)
	hops := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_refresh_hops_total",
			Help: "Number of distinct hops predicted",
		},
	)
	upd := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_refresh_updates_total",
			Help: "Number of capacity updates sent to the flow graph",
		},
		[]string{"cargo", "mode"},
	)
	br := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_refresh_branches_total",
			Help: "Number of branches forked at conditional orders",
		},
	)
	skips := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_refresh_merge_skips_total",
			Help: "Number of updates skipped because merging flow graphs was not allowed",
		},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "link_refresh_duration_seconds",
			Help:    "Duration of a link refresh run",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)
	return runs, hops, upd, br, skips, dur
}

func init() {
	refreshRuns, refreshHops, refreshUpdates, refreshBranches, refreshMergeSkips, refreshDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers refresh metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(refreshRuns, refreshHops, refreshUpdates, refreshBranches, refreshMergeSkips, refreshDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	refreshRuns, refreshHops, refreshUpdates, refreshBranches, refreshMergeSkips, refreshDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func observe(s Summary, refreshed bool) {
	if !refreshed {
		refreshRuns.WithLabelValues("noop").Inc()
		return
	}
	refreshRuns.WithLabelValues("refreshed").Inc()
	refreshHops.Add(float64(s.Hops))
	refreshBranches.Add(float64(s.Branches))
	refreshMergeSkips.Add(float64(s.MergeSkips))
	refreshDuration.Observe(s.Duration.Seconds())
	for _, u := range s.Updates {
		refreshUpdates.WithLabelValues(u.Cargo.String(), u.Mode.String()).Inc()
	}
}
