// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lectern/internal/logging"
)

// SlowRequestThreshold is the duration above which requests log at Warn.
const SlowRequestThreshold = time.Second

// AccessLog writes one structured line per request. Server errors log at
// Error, slow requests at Warn and everything else at Debug so that the
// violation endpoint does not flood Info.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)
		duration := time.Since(start)

		logger := logging.Ctx(r.Context())
		var event *zerolog.Event
		switch {
		case rec.status >= http.StatusInternalServerError:
			event = logger.Error()
		case duration > SlowRequestThreshold:
			event = logger.Warn().Bool("slow", true)
		default:
			event = logger.Debug()
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("route", routePattern(r)).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", duration).
			Str("remote_ip", r.RemoteAddr).
			Msg("HTTP request")
	})
}
