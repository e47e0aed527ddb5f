package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	registry       *prometheus.Registry
	classified     *prometheus.CounterVec
	failures       prometheus.Counter
	classify_timer prometheus.Histogram
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &metrics{
		registry: registry,
		classified: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "messreview_classifications_total",
			Help: "Reviews classified, by sentiment.",
		}, []string{"sentiment"}),
		failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "messreview_completion_failures_total",
			Help: "Classifications that failed because the completion service did not answer.",
		}),
		classify_timer: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "messreview_classification_duration_seconds",
			Help:    "Time spent classifying one review, including the model call.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}
