// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPResolver_ClientIP(t *testing.T) {
	open, err := NewIPResolver(nil)
	if err != nil {
		t.Fatalf("NewIPResolver(nil) error = %v", err)
	}
	trusted, err := NewIPResolver([]string{"10.0.0.0/8", "192.0.2.1"})
	if err != nil {
		t.Fatalf("NewIPResolver() error = %v", err)
	}

	tests := []struct {
		name     string
		resolver *IPResolver
		remote   string
		xff      string
		xri      string
		want     string
	}{
		{"remote only", open, "203.0.113.5:4000", "", "", "203.0.113.5"},
		{"xff first entry", open, "203.0.113.5:4000", "198.51.100.7, 10.0.0.2", "", "198.51.100.7"},
		{"x-real-ip", open, "203.0.113.5:4000", "", "198.51.100.8", "198.51.100.8"},
		{"xff beats x-real-ip", open, "203.0.113.5:4000", "198.51.100.7", "198.51.100.8", "198.51.100.7"},
		{"remote without port", open, "203.0.113.5", "", "", "203.0.113.5"},
		{"trusted cidr peer", trusted, "10.1.2.3:4000", "198.51.100.7", "", "198.51.100.7"},
		{"trusted single peer", trusted, "192.0.2.1:4000", "", "198.51.100.8", "198.51.100.8"},
		{"untrusted peer ignored", trusted, "203.0.113.5:4000", "198.51.100.7", "198.51.100.8", "203.0.113.5"},
		{"ipv6 peer", open, "[2001:db8::1]:4000", "", "", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := tt.resolver.ClientIP(req); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
			key, err := tt.resolver.KeyFunc(req)
			if err != nil || key != tt.want {
				t.Errorf("KeyFunc() = %q, %v", key, err)
			}
		})
	}
}

func TestNewIPResolver_Invalid(t *testing.T) {
	for _, p := range []string{"not-an-ip", "10.0.0.0/33"} {
		if _, err := NewIPResolver([]string{p}); err == nil {
			t.Errorf("NewIPResolver(%q) should fail", p)
		}
	}
	if r, err := NewIPResolver([]string{" ", ""}); err != nil || len(r.trusted) != 0 {
		t.Errorf("blank entries should be skipped: %v, %v", r, err)
	}
}
