package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are registered per server so that several servers can coexist in
// one process.
type metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.CounterVec
	tierDecisions     *prometheus.CounterVec
	selectionDuration prometheus.Histogram
	selectedFiles     prometheus.Histogram
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		tierDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "tier_decisions_total",
			Help:      "Tier recommendations by tier and deciding rule.",
		}, []string{"tier", "rule"}),
		selectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Name:      "selection_duration_seconds",
			Help:      "Time to score and rank a change set, including import scanning.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		selectedFiles: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Name:      "selection_changed_files",
			Help:      "Number of changed files scored per selection.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}
