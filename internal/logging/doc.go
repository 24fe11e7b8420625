// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package logging is the zerolog-based structured logging layer used by the
server and the browser module.

A global logger guarded by an RWMutex is configured once from main:

	logging.Init(logging.Config{
	    Level:  cfg.Logging.Level,
	    Format: cfg.Logging.Format,
	    Caller: cfg.Logging.Caller,
	})

	logging.Info().Str("backend", store.Backend()).Msg("Security log store opened")
	logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to save record")

Ctx adds the request_id and correlation_id fields that the request ID
middleware stores in the context.

NewSlogLogger adapts the global logger to log/slog for sutureslog and
watermill.

SecurityLogger writes operational entries about reported violations,
denied requests and audit reads. Identifiers are masked with the Sanitize
helpers so that the operational log does not duplicate the personal data
held in the security log itself.

Always finish an event with Msg or Send; an unfinished event is dropped.
*/
package logging
