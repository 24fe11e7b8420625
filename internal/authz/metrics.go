// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package authz

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthzDecisionsTotal counts decisions by role, route, action and outcome.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lectern_authz_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"role", "resource_pattern", "action", "decision"},
	)

	// AuthzDecisionDuration tracks the latency of authorization decisions.
	AuthzDecisionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lectern_authz_decision_duration_seconds",
			Help:    "Duration of authorization decisions in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
		[]string{"role"},
	)

	authzCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lectern_authz_cache_hits_total",
		Help: "Total number of authorization cache hits",
	})

	authzCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lectern_authz_cache_misses_total",
		Help: "Total number of authorization cache misses",
	})
)

// RecordAuthzDecision records one decision.
func RecordAuthzDecision(role, resource, action string, allowed bool, duration time.Duration) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	AuthzDecisionsTotal.WithLabelValues(role, normalizeResourcePattern(resource), action, outcome).Inc()
	AuthzDecisionDuration.WithLabelValues(role).Observe(duration.Seconds())
}

// normalizeResourcePattern collapses IDs so label cardinality stays bounded.
// Only the first four path segments are kept: /api/v1/security/alerts.
func normalizeResourcePattern(resource string) string {
	parts := strings.Split(strings.Trim(resource, "/"), "/")
	if len(parts) > 4 {
		parts = append(parts[:4], "*")
	}
	return "/" + strings.Join(parts, "/")
}

// RecordAuthzCacheHit counts a cache hit.
func RecordAuthzCacheHit() { authzCacheHits.Inc() }

// RecordAuthzCacheMiss counts a cache miss.
func RecordAuthzCacheMiss() { authzCacheMisses.Inc() }
