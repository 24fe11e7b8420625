// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/auth"
	"github.com/tomtom215/lectern/internal/protect"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var health HealthStatus
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "healthy" || health.Backend != "memory" || !health.StoreOK {
		t.Errorf("health = %+v", health)
	}
	if health.WSClients != 0 {
		t.Errorf("WSClients = %d, want 0", health.WSClients)
	}
}

func TestHealth_Degraded(t *testing.T) {
	env := newTestEnv(t)
	env.handler.store = failingStore{}

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var health HealthStatus
	_ = json.Unmarshal(decodeEnvelope(t, rec).Data, &health)
	if health.Status != "degraded" || health.StoreOK {
		t.Errorf("health = %+v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health", "", nil)

	rec := env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "lectern_api_requests_total") {
		t.Error("metrics output missing lectern_api_requests_total")
	}
}

func TestProtectionConfig(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/v1/protection/config", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/protection/config", env.token(t, "learner-1", auth.RoleLearner), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}
	var cfg protect.Config
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &cfg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := protect.DefaultConfig()
	if cfg.PointerThreshold != want.PointerThreshold || cfg.ViolationCooldown != want.ViolationCooldown {
		t.Errorf("config = %+v, want defaults", cfg)
	}
	if cfg.ViolationCooldown != 10*time.Second {
		t.Errorf("ViolationCooldown = %v, want 10s", cfg.ViolationCooldown)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/security/log", "", nil)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("X-Content-Type-Options missing")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("Cache-Control missing")
	}
	rid := rec.Header().Get("X-Request-ID")
	if rid == "" {
		t.Fatal("X-Request-ID missing")
	}
	if body := decodeEnvelope(t, rec); body.Error == nil || body.Error.RequestID != rid {
		t.Errorf("error request_id = %+v, want %s", body.Error, rid)
	}
}
