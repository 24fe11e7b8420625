// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Security Log Metrics
	SecurityLogRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_security_log_records_total",
			Help: "Total number of security log records accepted",
		},
		[]string{"action"},
	)

	SecurityLogFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_security_log_failures_total",
			Help: "Total number of security log writes that failed",
		},
		[]string{"stage"}, // "store", "publish"
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lectern_store_operation_duration_seconds",
			Help:    "Duration of security log store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "backend"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_store_operation_errors_total",
			Help: "Total number of failed security log store operations",
		},
		[]string{"operation", "backend"},
	)

	RecordsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lectern_security_log_pruned_total",
			Help: "Total number of security log records removed by retention",
		},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lectern_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lectern_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_events_published_total",
			Help: "Total number of security events published to the bus",
		},
		[]string{"result"}, // "success", "error", "circuit_open"
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_events_consumed_total",
			Help: "Total number of security events consumed from the bus",
		},
		[]string{"handler"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lectern_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Detection Metrics
	DetectionAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_detection_alerts_total",
			Help: "Total number of alerts raised by detection rules",
		},
		[]string{"rule"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_notifications_total",
			Help: "Total number of alert notifications attempted",
		},
		[]string{"notifier", "result"},
	)

	// Auth Metrics
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_auth_failures_total",
			Help: "Total number of rejected requests by reason",
		},
		[]string{"reason"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lectern_websocket_connections",
			Help: "Current number of admin live feed connections",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lectern_websocket_messages_dropped_total",
			Help: "Total number of live feed messages dropped because a buffer was full",
		},
	)
)

// RecordSecurityLog counts an accepted record.
func RecordSecurityLog(action string) {
	SecurityLogRecords.WithLabelValues(action).Inc()
}

// RecordSecurityLogFailure counts a failed write at the given stage.
func RecordSecurityLogFailure(stage string) {
	SecurityLogFailures.WithLabelValues(stage).Inc()
}

// RecordStoreOperation records a store operation metric.
func RecordStoreOperation(operation, backend string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, backend).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, backend).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPublish counts a bus publish by result.
func RecordPublish(result string) {
	EventsPublished.WithLabelValues(result).Inc()
}

// RecordConsume counts a message handled by the named bus handler.
func RecordConsume(handler string) {
	EventsConsumed.WithLabelValues(handler).Inc()
}

// SetCircuitBreakerState publishes a breaker state (0=closed, 1=half-open, 2=open).
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordAlert counts an alert raised by rule.
func RecordAlert(rule string) {
	DetectionAlerts.WithLabelValues(rule).Inc()
}

// RecordNotification counts a notifier delivery attempt.
func RecordNotification(notifier string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	NotificationsSent.WithLabelValues(notifier, result).Inc()
}

// RecordAuthFailure counts a rejected authentication or authorization.
func RecordAuthFailure(reason string) {
	AuthFailures.WithLabelValues(reason).Inc()
}
