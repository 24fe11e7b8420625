// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/lectern/internal/metrics"
)

func subjectEcho(t *testing.T, got **AuthSubject) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = GetAuthSubject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	m := newTestManager(t, time.Hour, "")
	token, err := m.GenerateToken("u-7", "erin", "erin@example.com", RoleInstructor)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
	}{
		{
			name:       "bearer header",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "lowercase scheme",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "bearer "+token) },
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "cookie fallback",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: DefaultTokenCookie, Value: token}) },
			wantStatus: http.StatusNoContent,
		},
		{
			name: "basic scheme falls back to cookie",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
				r.AddCookie(&http.Cookie{Name: DefaultTokenCookie, Value: token})
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "no credentials",
			setup:      func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bad token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong cookie name",
			setup:      func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "session", Value: token}) },
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *AuthSubject
			handler := NewMiddleware(m, "").Authenticate(subjectEcho(t, &got))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/security/log", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusNoContent {
				if got != nil {
					t.Error("handler must not run on auth failure")
				}
				return
			}
			if got == nil || got.ID != "u-7" || got.Role != RoleInstructor {
				t.Errorf("subject = %+v", got)
			}
		})
	}
}

func TestMiddleware_ErrorEnvelope(t *testing.T) {
	m := newTestManager(t, time.Hour, "")
	handler := NewMiddleware(m, "").Authenticate(http.NotFoundHandler())

	before := testutil.ToFloat64(metrics.AuthFailures.WithLabelValues("missing"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/security/log", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success {
		t.Error("success should be false")
	}
	if body.Error.Code != "UNAUTHORIZED" || body.Error.Message == "" {
		t.Errorf("error = %+v", body.Error)
	}
	if got := testutil.ToFloat64(metrics.AuthFailures.WithLabelValues("missing")) - before; got != 1 {
		t.Errorf("auth failure delta = %v, want 1", got)
	}
}

func TestMiddleware_CustomCookie(t *testing.T) {
	m := newTestManager(t, time.Hour, "")
	token, _ := m.GenerateToken("u-1", "frank", "", RoleLearner)

	var got *AuthSubject
	handler := NewMiddleware(m, "lms_session").Authenticate(subjectEcho(t, &got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "lms_session", Value: token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent || got == nil {
		t.Fatalf("status = %d, subject = %+v", w.Code, got)
	}
}
