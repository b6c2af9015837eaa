// Package metrics declares the bandit service's Prometheus instruments as
// package-level vars, the way NikeGunn-tutu/internal/infra/observability
// does for its own counters and gauges.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var StatePersisted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bandits",
	Subsystem: "store",
	Name:      "persisted_total",
	Help:      "Number of successful state-store disk flushes.",
})

var StatePersistErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bandits",
	Subsystem: "store",
	Name:      "persist_errors_total",
	Help:      "Number of failed state-store disk flushes.",
})

var ExperimentDraws = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bandits",
	Subsystem: "repository",
	Name:      "draws_total",
	Help:      "Number of successful draw calls across all experiments.",
})

var ExperimentUpdates = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bandits",
	Subsystem: "repository",
	Name:      "updates_total",
	Help:      "Number of successful update/update_batch calls across all experiments.",
})

var DispatchErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bandits",
	Subsystem: "repository",
	Name:      "dispatch_errors_total",
	Help:      "Number of repository dispatch calls that returned an error.",
})
