package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, jobsEnqueuedTotal) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "interview_jobs_processed_total",
		Help: "Total number of interview jobs processed, labeled by outcome.",
	},
	[]string{"status"}, // 'completed', 'failed', 'retried'
)

var jobsEnqueuedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "interview_jobs_enqueued_total",
		Help: "Total number of interview jobs enqueued by the API.",
	},
)

func IncJobProcessed(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncJobEnqueued() { jobsEnqueuedTotal.Inc() }
