package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yrfi_fetch_requests_total",
			Help: "Total HTTP fetches, labeled by source and status class.",
		},
		[]string{"source", "status_class"},
	)

	fetchRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yrfi_fetch_retries_total",
			Help: "Total backoff retries, labeled by source.",
		},
		[]string{"source"},
	)

	fetchRateLimitDelaySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "yrfi_fetch_rate_limit_delay_seconds",
			Help:    "Time spent waiting on the per-host politeness limiter.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	fetchBreakerOpenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yrfi_fetch_breaker_open_total",
			Help: "Fetches rejected by an open circuit breaker, by host.",
		},
		[]string{"host"},
	)
)

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500 && code < 600:
		return "5xx"
	default:
		return "other"
	}
}
