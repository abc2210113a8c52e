package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roleguard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_registrations_total",
			Help: "Successful registrations by self-assigned role",
		},
		[]string{"role"},
	)

	GuardDenialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_guard_denials_total",
			Help: "Requests halted by a guard",
		},
		[]string{"reason", "path"},
	)

	RateLimitBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roleguard_rate_limit_blocked_total",
			Help: "Requests rejected by the login rate limiter",
		},
		[]string{"path"},
	)
)

// KnownPath collapses unknown paths so label cardinality stays bounded.
func KnownPath(path string) string {
	switch path {
	case "/", "/register", "/login", "/logout", "/dashboard", "/admin", "/healthz", "/metrics":
		return path
	default:
		return "other"
	}
}
