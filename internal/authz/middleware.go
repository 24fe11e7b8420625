// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package authz

import (
	"net/http"
	"time"

	"github.com/tomtom215/lectern/internal/auth"
	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
)

// Middleware enforces the RBAC policy on authenticated requests. It must run
// after auth.Middleware.Authenticate.
type Middleware struct {
	enforcer *Enforcer
	secLog   *logging.SecurityLogger
}

// NewMiddleware creates a new authorization middleware.
func NewMiddleware(enforcer *Enforcer) *Middleware {
	return &Middleware{enforcer: enforcer, secLog: logging.NewSecurityLogger()}
}

// AuthorizeRequest derives the action from the HTTP method and checks the
// request path.
func (m *Middleware) AuthorizeRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.check(w, r, r.URL.Path, methodToAction(r.Method)) {
			next.ServeHTTP(w, r)
		}
	})
}

func (m *Middleware) check(w http.ResponseWriter, r *http.Request, object, action string) bool {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		metrics.RecordAuthFailure("forbidden")
		auth.WriteError(w, r, http.StatusForbidden, "FORBIDDEN", "Forbidden: no authentication context")
		return false
	}

	start := time.Now()
	allowed, err := m.enforcer.EnforceRole(subject.Role, object, action)
	RecordAuthzDecision(subject.Role, object, action, allowed, time.Since(start))
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", object).Msg("Authorization error")
		auth.WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return false
	}

	if !allowed {
		metrics.RecordAuthFailure("forbidden")
		m.secLog.LogAccessDenied(subject.ID, subject.Role, object, r.RemoteAddr, "policy denied "+action)
		auth.WriteError(w, r, http.StatusForbidden, "FORBIDDEN", "Forbidden: insufficient permissions")
		return false
	}
	return true
}

// methodToAction maps HTTP methods to Casbin actions.
func methodToAction(method string) string {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return ActionWrite
	default:
		return ActionRead
	}
}
