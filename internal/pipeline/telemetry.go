package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	docsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ecfr",
		Subsystem: "pipeline",
		Name:      "documents_total",
		Help:      "Documents processed per run, labelled by final status.",
	}, []string{"status"})

	fetchBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ecfr",
		Subsystem: "pipeline",
		Name:      "fetch_bytes_total",
		Help:      "Raw XML bytes downloaded across all runs.",
	})

	stepDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ecfr",
		Subsystem: "pipeline",
		Name:      "step_duration_seconds",
		Help:      "Wall time per step per run.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"step"})
)

func init() {
	prometheus.MustRegister(docsProcessed, fetchBytes, stepDuration)
}
