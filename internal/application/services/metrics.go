package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	tasksAutoclosedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tasks_autoclosed_total",
		Help: "Total number of overdue tasks closed by the sweeper",
	})

	sweeperFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_failures_total",
		Help: "Total number of per-task failures during sweep runs",
	})

	notificationsPublishedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_published_total",
		Help: "Total number of notifications pushed to live subscriber channels",
	})
)

// MetricCollectors returns the service-level collectors for registration with
// the server's metrics registry.
func MetricCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		tasksAutoclosedTotal,
		sweeperFailuresTotal,
		notificationsPublishedTotal,
	}
}
