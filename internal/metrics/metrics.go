// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics tracks the outcome of booking state changes.
type BookingMetrics struct {
	commits       *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	gateway       *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

var (
	bookingOnce     sync.Once
	bookingRegistry *BookingMetrics
)

// Booking returns the lazily registered booking metrics.
func Booking() *BookingMetrics {
	bookingOnce.Do(func() {
		bookingRegistry = &BookingMetrics{
			commits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hostel",
				Subsystem: "booking",
				Name:      "commits_total",
				Help:      "Confirm-and-commit attempts segmented by outcome.",
			}, []string{"outcome"}),
			cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hostel",
				Subsystem: "booking",
				Name:      "cancellations_total",
				Help:      "Cancellation attempts segmented by outcome.",
			}, []string{"outcome"}),
			gateway: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "hostel",
				Subsystem: "payment",
				Name:      "gateway_duration_seconds",
				Help:      "Latency of payment gateway calls.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation", "outcome"}),
			notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hostel",
				Subsystem: "booking",
				Name:      "notifications_total",
				Help:      "Booking notifications segmented by delivery outcome.",
			}, []string{"outcome"}),
			httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "hostel",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests processed, by route, method and status.",
			}, []string{"route", "method", "status"}),
			httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "hostel",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"route", "method"}),
		}
		prometheus.MustRegister(
			bookingRegistry.commits,
			bookingRegistry.cancellations,
			bookingRegistry.gateway,
			bookingRegistry.notifications,
			bookingRegistry.httpRequests,
			bookingRegistry.httpLatency,
		)
	})
	return bookingRegistry
}

func (m *BookingMetrics) Commit(outcome string)       { m.commits.WithLabelValues(outcome).Inc() }
func (m *BookingMetrics) Cancellation(outcome string) { m.cancellations.WithLabelValues(outcome).Inc() }
func (m *BookingMetrics) Notification(outcome string) { m.notifications.WithLabelValues(outcome).Inc() }

// Gateway records how long a payment gateway call took.
func (m *BookingMetrics) Gateway(operation, outcome string, took time.Duration) {
	m.gateway.WithLabelValues(operation, outcome).Observe(took.Seconds())
}

// HTTP records one served request.
func (m *BookingMetrics) HTTP(route, method, status string, took time.Duration) {
	m.httpRequests.WithLabelValues(route, method, status).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(took.Seconds())
}
