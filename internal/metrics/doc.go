// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package metrics provides Prometheus metrics for the security log server.

Metrics are registered with promauto at package init and exposed at /metrics
in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Security log:
  - lectern_security_log_records_total{action}
  - lectern_security_log_failures_total{stage}
  - lectern_store_operation_duration_seconds{operation,backend}
  - lectern_store_operation_errors_total{operation,backend}
  - lectern_security_log_pruned_total

API:
  - lectern_api_requests_total{method,endpoint,status}
  - lectern_api_request_duration_seconds{method,endpoint}
  - lectern_api_active_requests
  - lectern_api_rate_limit_hits_total{endpoint}

Event bus and detection:
  - lectern_events_published_total{result}
  - lectern_events_consumed_total{handler}
  - lectern_circuit_breaker_state{name}
  - lectern_detection_alerts_total{rule}
  - lectern_notifications_total{notifier,result}

Live feed:
  - lectern_websocket_connections
  - lectern_websocket_messages_dropped_total

# Usage

	start := time.Now()
	err := store.Save(ctx, rec)
	metrics.RecordStoreOperation("save", store.Backend(), time.Since(start), err)

Label values are always drawn from fixed sets (action names, route
patterns, rule names) to keep cardinality bounded.
*/
package metrics
