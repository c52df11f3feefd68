package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Callback reconciliation metrics
	CallbacksTotal     *prometheus.CounterVec
	SideEffectsTotal   *prometheus.CounterVec
	HoldCancelsTotal   *prometheus.CounterVec
	GatewayVerifyTotal *prometheus.CounterVec

	// Refund metrics
	RefundsCreatedTotal  prometheus.Counter
	RefundsRejectedTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "checkout"
	}

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Callback reconciliation metrics
		CallbacksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "callback",
				Name:      "reconciled_total",
				Help:      "Total number of gateway callbacks by resolved outcome",
			},
			[]string{"kind", "outcome"}, // outcome: success, failure, summary, card-update-success, card-update-failed
		),
		SideEffectsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "callback",
				Name:      "side_effects_total",
				Help:      "Total number of side-effect executions",
			},
			[]string{"effect", "status"}, // effect: receipt, accounting; status: ok, duplicate, error
		),
		HoldCancelsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "callback",
				Name:      "hold_cancellations_total",
				Help:      "Total number of authorization hold cancellations",
			},
			[]string{"status"}, // ok, error
		),
		GatewayVerifyTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "verifications_total",
				Help:      "Total number of gateway callback verifications",
			},
			[]string{"gateway", "valid"},
		),

		// Refund metrics
		RefundsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refund",
				Name:      "created_total",
				Help:      "Total number of refund drafts created",
			},
		),
		RefundsRejectedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refund",
				Name:      "rejected_total",
				Help:      "Total number of refund batch entries rejected",
			},
			[]string{"reason"},
		),

		// Cache metrics
		CacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
	}
}

// --- Convenience methods ---

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCallback records a reconciled callback by its resolved outcome.
func (m *Metrics) RecordCallback(kind, outcome string) {
	m.CallbacksTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordSideEffect records a side-effect execution.
func (m *Metrics) RecordSideEffect(effect, status string) {
	m.SideEffectsTotal.WithLabelValues(effect, status).Inc()
}

// RecordHoldCancel records an authorization hold cancellation attempt.
func (m *Metrics) RecordHoldCancel(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.HoldCancelsTotal.WithLabelValues(status).Inc()
}

// RecordGatewayVerify records a gateway verification.
func (m *Metrics) RecordGatewayVerify(gateway string, valid bool) {
	validStr := "true"
	if !valid {
		validStr = "false"
	}
	m.GatewayVerifyTotal.WithLabelValues(gateway, validStr).Inc()
}

// RecordRefundRejected records a rejected refund batch entry.
func (m *Metrics) RecordRefundRejected(reason string) {
	m.RefundsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit(cache string) {
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss(cache string) {
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
