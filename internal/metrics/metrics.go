// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	OTPIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "One-time codes issued, by purpose",
		},
		[]string{"purpose"},
	)

	OTPVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "One-time code verification attempts, by purpose and result",
		},
		[]string{"purpose", "result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sent_total",
			Help: "Outbound messages delivered, by kind",
		},
		[]string{"kind"},
	)

	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_delivery_failures_total",
			Help: "Outbound messages that could not be delivered, by kind and reason",
		},
		[]string{"kind", "reason"},
	)

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status changes, by target status",
		},
		[]string{"status"},
	)
)

// Middleware records request counts and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
