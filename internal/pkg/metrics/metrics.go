package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal 按方法/路径/状态码统计的请求总数。
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestDuration 请求耗时分布。
	HTTPRequestDuration *prometheus.HistogramVec
	// RateLimitedTotal 被限流拒绝的请求总数。
	RateLimitedTotal prometheus.Counter

	initOnce sync.Once
)

// InitMetrics 注册所有指标，可安全重复调用。
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notehive_http_requests_total",
			Help: "Total HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"})

		HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "notehive_http_request_duration_seconds",
			Help:    "HTTP request latency distribution.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notehive_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		})

		prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestDuration, RateLimitedTotal)
	})
}
