// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
)

// DefaultTokenCookie is the cookie the platform stores its session JWT in.
const DefaultTokenCookie = "token"

// Middleware authenticates requests with a bearer token or session cookie.
type Middleware struct {
	manager     *JWTManager
	tokenCookie string
}

// NewMiddleware creates the middleware. An empty cookie name uses
// DefaultTokenCookie.
func NewMiddleware(manager *JWTManager, tokenCookie string) *Middleware {
	if tokenCookie == "" {
		tokenCookie = DefaultTokenCookie
	}
	return &Middleware{manager: manager, tokenCookie: tokenCookie}
}

// Authenticate rejects requests without a valid token with 401 and stores
// the AuthSubject in the request context otherwise.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := m.authenticate(r)
		if err != nil {
			m.handleAuthError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	})
}

func (m *Middleware) authenticate(r *http.Request) (*AuthSubject, error) {
	token := m.extractToken(r)
	if token == "" {
		return nil, ErrNoCredentials
	}
	claims, err := m.manager.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return AuthSubjectFromClaims(claims), nil
}

// extractToken reads the Authorization header first, then the cookie.
func (m *Middleware) extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(m.tokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

func (m *Middleware) handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	reason, message := "invalid", "Unauthorized: invalid credentials"
	switch {
	case errors.Is(err, ErrNoCredentials):
		reason, message = "missing", "Unauthorized: authentication required"
	case errors.Is(err, ErrExpiredToken):
		reason, message = "expired", "Unauthorized: credentials expired"
	}
	metrics.RecordAuthFailure(reason)
	logging.Ctx(r.Context()).Debug().Err(err).Str("path", r.URL.Path).Msg("authentication failed")

	WriteError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

type errorBody struct {
	Success bool       `json:"success"`
	Error   errorField `json:"error"`
}

type errorField struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError writes the API error envelope. It is shared by the auth and
// authz middleware, which run before the api package's handlers.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorField{
			Code:      code,
			Message:   message,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}
