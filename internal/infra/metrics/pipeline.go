package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(pipelineStageSeconds, summaryFallbacksTotal) }

var pipelineStageSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of each pipeline stage.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 180, 600, 1800, 3600},
	},
	[]string{"stage"}, // 'download', 'transcribe', 'summarize', 'persist'
)

var summaryFallbacksTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "summary_fallbacks_total",
		Help: "Times the summarization stage returned the fallback record because model output was unparseable.",
	},
)

func ObserveStage(stage string, d time.Duration) {
	pipelineStageSeconds.WithLabelValues(norm(stage)).Observe(d.Seconds())
}

func IncSummaryFallback() { summaryFallbacksTotal.Inc() }
