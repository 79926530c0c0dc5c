package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	EnqueueCounter       = prometheus.NewCounter(prometheus.CounterOpts{Name: "videojobs_enqueued_total", Help: "Jobs accepted at intake"})
	RateLimitRejects     = prometheus.NewCounter(prometheus.CounterOpts{Name: "videojobs_rate_limit_rejects_total", Help: "Webhooks rejected by the rate limiter"})
	JobsCompleted        = prometheus.NewCounter(prometheus.CounterOpts{Name: "videojobs_completed_total", Help: "Jobs that produced a video"})
	JobsFailed           = prometheus.NewCounter(prometheus.CounterOpts{Name: "videojobs_failed_total", Help: "Job attempts that failed"})
	JobsDeadLetter       = prometheus.NewCounter(prometheus.CounterOpts{Name: "videojobs_dead_letter_total", Help: "Jobs moved to the DLQ"})
	NotifyFallbacks      = prometheus.NewCounter(prometheus.CounterOpts{Name: "videojobs_notify_fallback_total", Help: "Notifications that fell back to logging"})
	QueueDepthGauge      = prometheus.NewGauge(prometheus.GaugeOpts{Name: "videojobs_queue_depth", Help: "Ready queue depth"})
	InFlightGauge        = prometheus.NewGauge(prometheus.GaugeOpts{Name: "videojobs_inflight", Help: "Jobs currently leased"})
	StageDuration        = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videojobs_stage_duration_seconds",
		Help:    "Wall-clock time per pipeline stage",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			EnqueueCounter,
			RateLimitRejects,
			JobsCompleted,
			JobsFailed,
			JobsDeadLetter,
			NotifyFallbacks,
			QueueDepthGauge,
			InFlightGauge,
			StageDuration,
		)
	})
	return promhttp.Handler()
}
