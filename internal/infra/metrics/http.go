package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(httpRequestsTotal, httpRequestDurationMs) }

var httpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by route and status class.",
	},
	[]string{"route", "status"},
)

var httpRequestDurationMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request latency distribution in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
	},
	[]string{"route"},
)

func ObserveHTTPRequest(route, status string, latencyMs float64) {
	httpRequestsTotal.WithLabelValues(route, status).Inc()
	httpRequestDurationMs.WithLabelValues(route).Observe(latencyMs)
}
