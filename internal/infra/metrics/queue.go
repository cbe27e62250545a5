package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(queueRetriesTotal, queueDeadTotal, queueDepth) }

var queueRetriesTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "task_queue_retries_total",
		Help: "Messages rescheduled after a transient failure.",
	},
)

var queueDeadTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "task_queue_dead_total",
		Help: "Messages moved to the dead-letter list after exhausting retries.",
	},
)

var queueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "task_queue_depth",
		Help: "Messages waiting on the main queue list.",
	},
)

func IncQueueRetry()          { queueRetriesTotal.Inc() }
func IncQueueDead()           { queueDeadTotal.Inc() }
func SetQueueDepth(n float64) { queueDepth.Set(n) }
