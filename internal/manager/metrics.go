package manager

import "github.com/prometheus/client_golang/prometheus"

var (
	graphNodes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "modeld",
		Subsystem: "graph",
		Name:      "nodes",
		Help:      "Current number of nodes in the dependency graph",
	})

	graphLoadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modeld",
		Subsystem: "graph",
		Name:      "loads_total",
		Help:      "Total load calls issued to the lifecycle collaborator",
	})

	graphUnloadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modeld",
		Subsystem: "graph",
		Name:      "unloads_total",
		Help:      "Total unload calls issued to the lifecycle collaborator",
	})

	graphCycleErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modeld",
		Subsystem: "graph",
		Name:      "cycle_errors_total",
		Help:      "Total dependency cycles detected",
	})

	graphDependencyFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "modeld",
		Subsystem: "graph",
		Name:      "dependency_failed_total",
		Help:      "Total nodes marked DEPENDENCY_FAILED by the scheduler",
	})

	schedulerIterationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "modeld",
		Subsystem: "scheduler",
		Name:      "iteration_duration_seconds",
		Help:      "Duration of one load scheduler fixed-point iteration",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(
		graphNodes,
		graphLoadsTotal,
		graphUnloadsTotal,
		graphCycleErrorsTotal,
		graphDependencyFailedTotal,
		schedulerIterationDuration,
	)
}
