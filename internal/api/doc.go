// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package api serves the security log over HTTP.

Protected pages report violations with POST /api/v1/security/log (also
mounted at /security/log). Administrators read the log, its aggregates and
detection alerts under /api/v1/security, and may follow new records and
alerts live over a websocket.

# Response Format

Every JSON response uses one envelope:

	{"success": true}
	{"success": true, "data": {...}}
	{"success": true, "data": [...], "total": 42}
	{"success": false, "error": {"code": "VALIDATION_FAILED", "message": "...", "request_id": "..."}}

Store errors are logged and answered with a generic message; validation
errors list the failing fields but never echo submitted values.

# Security

  - Authentication: auth.Middleware (bearer token or session cookie), 401 on failure
  - Authorization: authz.Middleware (Casbin) on every /api/v1 route, 403 on denial
  - Rate limiting: go-chi/httprate per client IP, with a stricter limit on violation reports
  - CORS: go-chi/cors; websocket upgrades must come from an allowed Origin

The client IP comes from X-Forwarded-For or X-Real-IP. When trusted
proxies are configured those headers are believed only from a trusted peer.

# Usage

	handler := api.NewHandler(api.HandlerDeps{
	    Recorder:    recorder,
	    Alerts:      alertStore,
	    Hub:         hub,
	    Protection:  cfg.Protection,
	    Resolver:    resolver,
	    CORSOrigins: cfg.Security.CORSOrigins,
	})
	router := api.NewRouter(handler, chiMW, authMW, authzMW)
	srv := &http.Server{Handler: router.Setup()}
*/
package api
