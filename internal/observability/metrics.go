package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Notification outcomes.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// Metrics holds the service collectors on a private registry. All methods
// are no-ops on a nil receiver so tests can skip wiring it.
type Metrics struct {
	registry        *prometheus.Registry
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorCount      *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	deferredPending prometheus.Gauge
}

// NewMetrics registers the collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helpdesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errorCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_http_errors_total",
			Help: "Total number of HTTP error responses by error code",
		}, []string{"method", "route", "code"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_ticket_transitions_total",
			Help: "Ticket lifecycle transitions committed",
		}, []string{"event"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_notifications_total",
			Help: "Outbound notifications attempted",
		}, []string{"kind", "outcome"}),
		deferredPending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "helpdesk_deferred_tasks_pending",
			Help: "Deferred notification tasks queued or running",
		}),
	}
}

// RecordRequest observes a finished HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestCount.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorCount.WithLabelValues(method, route, code).Inc()
}

// RecordTransition counts a committed lifecycle event.
func (m *Metrics) RecordTransition(event string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(event).Inc()
}

// RecordNotification counts one notification attempt.
func (m *Metrics) RecordNotification(kind, outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(kind, outcome).Inc()
}

// DeferredQueued and DeferredDone track the deferred task backlog.
func (m *Metrics) DeferredQueued() {
	if m == nil {
		return
	}
	m.deferredPending.Inc()
}

func (m *Metrics) DeferredDone() {
	if m == nil {
		return
	}
	m.deferredPending.Dec()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the registry for tests and custom exporters.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
