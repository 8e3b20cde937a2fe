// Package metrics exposes pipeline stage counters and durations for the
// /metrics endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_stage_duration_seconds",
		Help:    "Duration of one pipeline stage run (domain, relationship, view, kpi, dashboard).",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage", "outcome"})

	StageTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_stage_total",
		Help: "Count of pipeline stage runs by outcome.",
	}, []string{"stage", "outcome"})

	JobsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_jobs_enqueued_total",
		Help: "Count of background jobs enqueued by kind.",
	}, []string{"kind"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_http_request_duration_seconds",
		Help:    "Duration of HTTP requests by route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)

// ObserveStage records one stage run's outcome and duration.
func ObserveStage(stage, outcome string, start time.Time) {
	StageTotal.WithLabelValues(stage, outcome).Inc()
	StageDuration.WithLabelValues(stage, outcome).Observe(time.Since(start).Seconds())
}

// Handler returns the promhttp handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
