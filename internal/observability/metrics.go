package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks request duration
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "phone_verification_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"path", "method", "status"},
	)

	// CodesIssued tracks issued verification codes
	CodesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phone_verification_codes_issued_total",
			Help: "Number of verification codes issued",
		},
		[]string{"channel"},
	)

	// VerificationResults tracks verification attempt outcomes
	VerificationResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phone_verification_results_total",
			Help: "Number of verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	// RateLimitRejections tracks per-IP rate limit rejections
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "phone_verification_rate_limit_rejections_total",
			Help: "Number of code requests rejected by the IP rate limiter",
		},
	)

	// StoreOperations tracks store operations
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phone_verification_store_operations_total",
			Help: "Number of store operations",
		},
		[]string{"operation", "status"},
	)

	// ActiveConnections tracks active connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "phone_verification_active_connections",
			Help: "Number of active connections",
		},
	)
)
