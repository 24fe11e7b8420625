// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/lectern/internal/auth"
	ws "github.com/tomtom215/lectern/internal/websocket"
)

func dialFeed(t *testing.T, srv *httptest.Server, token, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	if origin != "" {
		header.Set("Origin", origin)
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/security/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func TestWebSocket_LiveFeed(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server)
	defer srv.Close()

	conn, resp, err := dialFeed(t, srv, env.token(t, "admin-1", auth.RoleAdmin), "https://learn.example.com")
	if err != nil {
		t.Fatalf("Dial() error = %v (resp %v)", err, resp)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for env.hub.GetClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if env.hub.GetClientCount() != 1 {
		t.Fatalf("GetClientCount() = %d, want 1", env.hub.GetClientCount())
	}

	env.hub.BroadcastJSON(ws.MessageTypeSecurityAlert, map[string]string{"id": "a-1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if !strings.Contains(string(data), `"security_alert"`) || !strings.Contains(string(data), `"a-1"`) {
		t.Errorf("message = %s", data)
	}
}

func TestWebSocket_Rejections(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.server)
	defer srv.Close()

	tests := []struct {
		name       string
		token      string
		origin     string
		wantStatus int
	}{
		{"anonymous", "", "https://learn.example.com", http.StatusUnauthorized},
		{"learner", env.token(t, "learner-1", auth.RoleLearner), "https://learn.example.com", http.StatusForbidden},
		{"missing origin", env.token(t, "admin-1", auth.RoleAdmin), "", http.StatusForbidden},
		{"foreign origin", env.token(t, "admin-1", auth.RoleAdmin), "https://evil.example.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := dialFeed(t, srv, tt.token, tt.origin)
			if err == nil {
				conn.Close()
				t.Fatal("Dial() succeeded, want rejection")
			}
			if resp == nil || resp.StatusCode != tt.wantStatus {
				t.Errorf("response = %v, want status %d", resp, tt.wantStatus)
			}
		})
	}
}

func TestWebSocket_NoHub(t *testing.T) {
	env := newTestEnv(t)
	env.handler.hub = nil

	rec := env.do(t, http.MethodGet, "/api/v1/security/ws", env.token(t, "admin-1", auth.RoleAdmin), nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("https://a.example\r\nfake: entry"); got != "https://a.examplefake: entry" {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
	if got := sanitizeLogValue(strings.Repeat("o", 300)); len(got) != 203 {
		t.Errorf("len = %d, want 203", len(got))
	}
}
