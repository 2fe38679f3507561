package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footy_cache_lookups_total",
		Help: "Cache lookups, labeled by category and result",
	}, []string{"category", "result"})

	upstreamAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footy_upstream_attempts_total",
		Help: "Upstream request attempts, labeled by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	upstreamAttemptDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "footy_upstream_attempt_duration_seconds",
		Help:    "Latency distribution of individual upstream attempts",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"endpoint"})

	quotaDenialsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "footy_quota_denials_total",
		Help: "Requests denied by the plan ceilings, labeled by window",
	}, []string{"window"})
)
