// Package metrics defines the Prometheus collectors the application exports.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, route pattern and status.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// RequestDuration records HTTP request latency by method and route pattern.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lostfound_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ItemsPosted counts new items by status.
	ItemsPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_items_posted_total",
		Help: "Total number of items posted",
	}, []string{"status"})

	// ItemsResolved counts items marked resolved.
	ItemsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lostfound_items_resolved_total",
		Help: "Total number of items marked resolved",
	})

	// MessagesSent counts messages and replies sent.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_messages_sent_total",
		Help: "Total number of messages sent",
	}, []string{"kind"})

	// LoginAttempts counts login attempts by result.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lostfound_login_attempts_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"})

	// UploadsRejected counts image uploads skipped because they were not
	// accepted images.
	UploadsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lostfound_uploads_rejected_total",
		Help: "Total number of rejected image uploads",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request. An empty route means no
// pattern matched.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
