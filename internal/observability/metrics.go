package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records portal and upstream traffic in prometheus collectors.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	activity        *prometheus.CounterVec
}

// NewMetrics registers collectors on reg. Tests pass a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verify_portal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Portal HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "verify_portal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Portal HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verify_portal",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Portal HTTP requests that ended in an error envelope",
		}, []string{"route", "method", "code"}),
		upstreamCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verify_portal",
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Verification API calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		upstreamLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "verify_portal",
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Verification API call latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		activity: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "verify_portal",
			Subsystem: "activity",
			Name:      "events_total",
			Help:      "Portal activity events by type",
		}, []string{"type"}),
	}
}

// RecordRequest counts a served request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts a request that failed with an error code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordUpstream counts one verification API call. outcome is "ok",
// "app_error" or "transport_error".
func (m *Metrics) RecordUpstream(endpoint, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamCalls.WithLabelValues(endpoint, outcome).Inc()
	m.upstreamLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordActivity counts a portal activity event.
func (m *Metrics) RecordActivity(eventType string) {
	if m == nil {
		return
	}
	m.activity.WithLabelValues(eventType).Inc()
}
