// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package auth authenticates requests against the learning platform's session
tokens.

The platform issues HS256 JWTs whose subject is the user ID and which carry
the username, email and role. Lectern only verifies them: tokens are read
from the Authorization header ("Bearer <token>") or, when absent, from the
session cookie.

Usage:

	manager, err := auth.NewJWTManager(cfg.Security.JWTSecret, 0, cfg.Security.JWTIssuer)
	if err != nil {
	    return err
	}
	mw := auth.NewMiddleware(manager, cfg.Security.TokenCookie)
	r.With(mw.Authenticate).Post("/api/v1/security/log", h.LogSecurityEvent)

Handlers read the caller with GetAuthSubject(r.Context()). A request that
fails authentication never reaches the handler and receives a 401 with the
standard API error envelope.
*/
package auth
