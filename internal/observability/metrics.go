package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MetricActionsTotal counts finished actions by kind and outcome. The
	// outcome label is "success", or the lower-cased error kind.
	MetricActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "learnyst",
		Name:      "actions_total",
		Help:      "Finished automation actions by kind and outcome.",
	}, []string{"kind", "outcome"})

	// MetricQueueDepth tracks the number of actions waiting in the serializer.
	MetricQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "learnyst",
		Name:      "queue_depth",
		Help:      "Actions currently waiting in the execution queue.",
	})

	// MetricLoginsTotal counts target-site login attempts by result.
	MetricLoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "learnyst",
		Name:      "logins_total",
		Help:      "Target-site login attempts by result.",
	}, []string{"result"})

	// MetricActionDuration observes wall time of the UI execution phase.
	MetricActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "learnyst",
		Name:      "action_duration_seconds",
		Help:      "Wall time of the UI execution phase per action kind.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"kind"})
)
