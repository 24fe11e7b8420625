// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package middleware provides the HTTP middleware shared by every route.

All middleware has the chi signature func(http.Handler) http.Handler:

  - RequestID: X-Request-ID propagation into the logging context
  - AccessLog: one zerolog line per request
  - PrometheusMetrics: request count, latency and in-flight gauge labelled by route pattern
  - SecurityHeaders: nosniff, frame denial and no-store caching
  - Compression: gzip for large download routes

Order matters. RequestID runs first so that every later log line carries the
ID, and PrometheusMetrics and AccessLog run inside the router so the matched
route pattern is available:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
