package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "briefly", Name: "gateway_requests_total", Help: "Number of gateway executor calls by method and outcome."},
		[]string{"method", "status"},
	)
	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "briefly", Name: "gateway_request_duration_seconds", Help: "Latency of gateway executor calls.", Buckets: prometheus.DefBuckets},
		[]string{"method"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "briefly", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "briefly", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	SignIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "briefly", Name: "sign_ins_total", Help: "Number of OAuth sign-in attempts by provider and outcome."},
		[]string{"provider", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(GatewayRequests)
	reg.MustRegister(GatewayDuration)
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(SignIns)
}
