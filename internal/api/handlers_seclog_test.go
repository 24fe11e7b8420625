// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/actions"
	"github.com/tomtom215/lectern/internal/auth"
	"github.com/tomtom215/lectern/internal/seclog"
)

func TestLogViolation_Success(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "learner-1", auth.RoleLearner)

	before := time.Now().UTC()
	rec := env.do(t, http.MethodPost, "/api/v1/security/log", tok, map[string]any{
		"action":  "screenshot_attempt",
		"page":    "/courses/go-101/lesson-3",
		"details": map[string]any{"key": "PrintScreen"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != `{"success":true}` {
		t.Errorf("body = %s, want {\"success\":true}", got)
	}

	records, err := env.store.Query(context.Background(), seclog.Filter{})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("stored %d records, want 1", len(records))
	}
	got := records[0]
	if got.ID == "" {
		t.Error("record ID not assigned")
	}
	if got.UserID != "learner-1" || got.UserName != "learner-1-name" || got.UserEmail != "learner-1@example.com" {
		t.Errorf("user = %q/%q/%q", got.UserID, got.UserName, got.UserEmail)
	}
	if got.Action != actions.ScreenshotAttempt {
		t.Errorf("Action = %q, want screenshot_attempt", got.Action)
	}
	if got.Page != "/courses/go-101/lesson-3" {
		t.Errorf("Page = %q", got.Page)
	}
	if got.Details["key"] != "PrintScreen" {
		t.Errorf("Details = %v", got.Details)
	}
	if got.IP != "192.0.2.10" {
		t.Errorf("IP = %q, want 192.0.2.10", got.IP)
	}
	if got.Timestamp.Before(before.Add(-time.Second)) {
		t.Errorf("Timestamp = %v, want server time", got.Timestamp)
	}
}

func TestLogViolation_LegacyPath(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "learner-1", auth.RoleLearner)

	rec := env.do(t, http.MethodPost, "/security/log", tok, map[string]any{
		"action": "devtools_opened",
		"page":   "/courses/go-101",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if env.store.Len() != 1 {
		t.Errorf("stored %d records, want 1", env.store.Len())
	}

	if rec := env.do(t, http.MethodGet, "/security/log?action=devtools_opened&userId=learner-1&limit=10", tok, nil); rec.Code != http.StatusForbidden {
		t.Errorf("learner GET status = %d, want 403", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/security/log", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous GET status = %d, want 401", rec.Code)
	}

	admin := env.token(t, "admin-1", auth.RoleAdmin)
	rec = env.do(t, http.MethodGet, "/security/log?action=devtools_opened&userId=learner-1&limit=10", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin GET status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	var records []seclog.Record
	if err := json.Unmarshal(body.Data, &records); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(records) != 1 || records[0].UserID != "learner-1" || records[0].Page != "/courses/go-101" {
		t.Errorf("records = %+v", records)
	}
}

func TestLogViolation_BodyCannotSpoofUser(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "learner-1", auth.RoleLearner)

	rec := env.do(t, http.MethodPost, "/api/v1/security/log", tok,
		`{"action":"ui_obstruct","page":"/p","userId":"someone-else","timestamp":"2000-01-01T00:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
	}

	records, _ := env.store.Query(context.Background(), seclog.Filter{})
	if len(records) != 1 || records[0].UserID != "learner-1" {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Timestamp.Year() == 2000 {
		t.Error("client timestamp was trusted")
	}
}

func TestLogViolation_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/security/log", "/security/log"} {
		rec := env.do(t, http.MethodPost, path, "", map[string]any{"action": "screenshot_attempt", "page": "/p"})
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", path, rec.Code)
		}
	}
	if env.store.Len() != 0 {
		t.Errorf("unauthenticated reports were stored: %d", env.store.Len())
	}
}

func TestLogViolation_BadRequests(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "learner-1", auth.RoleLearner)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed JSON", `{"action":`, ErrCodeBadRequest},
		{"missing action", `{"page":"/p"}`, ErrCodeValidationFailed},
		{"unknown action", `{"action":"print","page":"/p"}`, ErrCodeValidationFailed},
		{"missing page", `{"action":"screenshot_attempt"}`, ErrCodeValidationFailed},
		{"relative page", `{"action":"screenshot_attempt","page":"courses/1"}`, ErrCodeValidationFailed},
		{"page with whitespace", `{"action":"screenshot_attempt","page":"/a b"}`, ErrCodeValidationFailed},
		{"page too long", `{"action":"screenshot_attempt","page":"/` + strings.Repeat("a", 2048) + `"}`, ErrCodeValidationFailed},
		{"details not an object", `{"action":"screenshot_attempt","page":"/p","details":[1]}`, ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/security/log", tok, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			body := decodeEnvelope(t, rec)
			if body.Success || body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", body.Error, tt.wantCode)
			}
		})
	}

	if env.store.Len() != 0 {
		t.Errorf("invalid reports were stored: %d", env.store.Len())
	}
}

func TestLogViolation_ValidationDoesNotEchoValues(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "learner-1", auth.RoleLearner)

	rec := env.do(t, http.MethodPost, "/api/v1/security/log", tok, `{"action":"<script>alert(1)</script>","page":"/p"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "script") {
		t.Errorf("response echoes submitted value: %s", rec.Body.String())
	}
}

func TestLogViolation_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.handler.recorder = seclog.NewRecorder(failingStore{}, nil)
	tok := env.token(t, "learner-1", auth.RoleLearner)

	rec := env.do(t, http.MethodPost, "/api/v1/security/log", tok, map[string]any{"action": "screenshot_attempt", "page": "/p"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body.Error == nil || body.Error.Message != "Failed to record security event" {
		t.Errorf("error = %+v", body.Error)
	}
	if strings.Contains(rec.Body.String(), "/var/lib/lectern") {
		t.Errorf("store error leaked: %s", rec.Body.String())
	}
}

func TestListLogs_AdminOnly(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		role string
		want int
	}{
		{auth.RoleLearner, http.StatusForbidden},
		{auth.RoleInstructor, http.StatusForbidden},
		{auth.RoleAdmin, http.StatusOK},
	}
	for _, path := range []string{
		"/api/v1/security/log",
		"/api/v1/security/stats",
		"/api/v1/security/summary",
		"/api/v1/security/log/export",
		"/api/v1/security/alerts",
	} {
		for _, tt := range tests {
			rec := env.do(t, http.MethodGet, path, env.token(t, "u-"+tt.role, tt.role), nil)
			if rec.Code != tt.want {
				t.Errorf("GET %s as %s: status = %d, want %d", path, tt.role, rec.Code, tt.want)
			}
		}
		if rec := env.do(t, http.MethodGet, path, "", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s anonymous: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestListLogs_Filters(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	seed(t, env.store,
		seclog.Record{UserID: "u1", Action: actions.ScreenshotAttempt, Page: "/a", Timestamp: now.Add(-3 * time.Hour)},
		seclog.Record{UserID: "u1", Action: actions.DevToolsOpened, Page: "/a", Timestamp: now.Add(-2 * time.Hour)},
		seclog.Record{UserID: "u2", Action: actions.ScreenshotAttempt, Page: "/b", Timestamp: now.Add(-1 * time.Hour)},
		seclog.Record{UserID: "u2", Action: actions.ScreenshotAttempt, Page: "/b", Timestamp: now.Add(-time.Minute)},
	)
	tok := env.token(t, "admin-1", auth.RoleAdmin)

	tests := []struct {
		name      string
		query     string
		wantLen   int
		wantTotal int64
	}{
		{"all", "", 4, 4},
		{"by action", "?action=screenshot_attempt", 3, 3},
		{"by user", "?userId=u1", 2, 2},
		{"action and user", "?action=screenshot_attempt&userId=u2", 2, 2},
		{"limit", "?limit=1", 1, 4},
		{"offset", "?limit=2&offset=3", 1, 4},
		{"start", "?start=" + now.Add(-90*time.Minute).Format(time.RFC3339), 2, 2},
		{"end", "?end=" + now.Add(-150*time.Minute).Format(time.RFC3339), 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/security/log"+tt.query, tok, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
			}
			body := decodeEnvelope(t, rec)
			var records []seclog.Record
			if err := json.Unmarshal(body.Data, &records); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if len(records) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(records), tt.wantLen)
			}
			if body.Total == nil || *body.Total != tt.wantTotal {
				t.Errorf("total = %v, want %d", body.Total, tt.wantTotal)
			}
		})
	}
}

func TestListLogs_NewestFirstAndEmpty(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "admin-1", auth.RoleAdmin)

	rec := env.do(t, http.MethodGet, "/api/v1/security/log", tok, nil)
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("empty list should encode as []: %s", rec.Body.String())
	}

	now := time.Now().UTC()
	seed(t, env.store,
		seclog.Record{ID: "old", UserID: "u1", Action: actions.ContextMenu, Page: "/a", Timestamp: now.Add(-time.Hour)},
		seclog.Record{ID: "new", UserID: "u1", Action: actions.ContextMenu, Page: "/a", Timestamp: now},
	)
	rec = env.do(t, http.MethodGet, "/api/v1/security/log", tok, nil)
	var records []seclog.Record
	_ = json.Unmarshal(decodeEnvelope(t, rec).Data, &records)
	if len(records) != 2 || records[0].ID != "new" {
		t.Errorf("order = %+v, want newest first", records)
	}
}

func TestListLogs_BadFilters(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "admin-1", auth.RoleAdmin)

	for _, q := range []string{
		"?action=print",
		"?limit=abc",
		"?limit=-1",
		"?limit=5000",
		"?offset=-3",
		"?start=yesterday",
		"?end=2026-13-01T00:00:00Z",
		"?start=2026-02-01T00:00:00Z&end=2026-01-01T00:00:00Z",
	} {
		rec := env.do(t, http.MethodGet, "/api/v1/security/log"+q, tok, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", q, rec.Code)
		}
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	var recs []seclog.Record
	for i := 0; i < 6; i++ {
		recs = append(recs, seclog.Record{
			UserID: []string{"u1", "u2", "u3"}[i%3], Action: actions.ScreenshotAttempt, Page: "/p",
			Timestamp: now.Add(-time.Duration(i+1) * time.Minute),
		})
	}
	recs = append(recs, seclog.Record{UserID: "u4", Action: actions.ScreenshotAttempt, Page: "/p", Timestamp: now.Add(-2 * time.Hour)})
	for i := range recs {
		recs[i].ID = "s" + string(rune('a'+i))
	}
	seed(t, env.store, recs...)

	rec := env.do(t, http.MethodGet, "/api/v1/security/stats", env.token(t, "admin-1", auth.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats seclog.Stats
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := seclog.Stats{TotalAttempts: 7, UniqueUsers: 4, LastHourAttempts: 6}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	seed(t, env.store,
		seclog.Record{UserID: "u1", Action: actions.ScreenshotAttempt, Page: "/a", Timestamp: now},
		seclog.Record{UserID: "u1", Action: actions.ScreenshotAttempt, Page: "/a", Timestamp: now},
		seclog.Record{UserID: "u2", Action: actions.DevToolsOpened, Page: "/a", Timestamp: now},
	)

	rec := env.do(t, http.MethodGet, "/api/v1/security/summary", env.token(t, "admin-1", auth.RoleAdmin), nil)
	var summary []seclog.ActionCount
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summary) != 2 || summary[0].Action != actions.ScreenshotAttempt || summary[0].Count != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestReadEndpoints_StoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.handler.store = failingStore{}
	tok := env.token(t, "admin-1", auth.RoleAdmin)

	for _, path := range []string{
		"/api/v1/security/log",
		"/api/v1/security/stats",
		"/api/v1/security/summary",
		"/api/v1/security/log/export?format=csv",
	} {
		rec := env.do(t, http.MethodGet, path, tok, nil)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("GET %s: status = %d, want 500", path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "/var/lib/lectern") {
			t.Errorf("GET %s leaked the store error: %s", path, rec.Body.String())
		}
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now().UTC()
	seed(t, env.store,
		seclog.Record{UserID: "u1", Action: actions.ScreenshotAttempt, Page: "/a", Timestamp: now},
		seclog.Record{UserID: "u2", Action: actions.RecordingDetected, Page: "/b", Timestamp: now},
	)
	tok := env.token(t, "admin-1", auth.RoleAdmin)

	tests := []struct {
		format      string
		contentType string
		ext         string
		contains    string
	}{
		{"json", "application/json", ".json", `"action": "screenshot_attempt"`},
		{"csv", "text/csv", ".csv", "id,timestamp,user_id"},
		{"cef", "text/plain", ".cef", "CEF:0|"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/security/log/export?format="+tt.format, tok, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d (body %s)", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %s", ct, tt.contentType)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, tt.ext) {
				t.Errorf("Content-Disposition = %q", cd)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body missing %q: %s", tt.contains, rec.Body.String())
			}
		})
	}

	rec := env.do(t, http.MethodGet, "/api/v1/security/log/export?format=xml", tok, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format: status = %d, want 400", rec.Code)
	}
}

func TestExportRecords_Pages(t *testing.T) {
	store := seclog.NewMemoryStore(3000)
	now := time.Now().UTC()
	for i := 0; i < 2500; i++ {
		rec := seclog.Record{ID: fmt.Sprintf("r%04d", i), UserID: "u", Action: actions.ContextMenu, Page: "/p", Timestamp: now.Add(time.Duration(i) * time.Millisecond)}
		if err := store.Save(context.Background(), &rec); err != nil {
			t.Fatal(err)
		}
	}
	h := NewHandler(HandlerDeps{Recorder: seclog.NewRecorder(store, nil)})
	req := httptest.NewRequest(http.MethodGet, "/export", nil)

	all, err := h.exportRecords(req, seclog.Filter{})
	if err != nil {
		t.Fatalf("exportRecords() error = %v", err)
	}
	if len(all) != 2500 {
		t.Errorf("exported %d records, want 2500", len(all))
	}

	limited, _ := h.exportRecords(req, seclog.Filter{Limit: 1200})
	if len(limited) != 1200 {
		t.Errorf("exported %d records with limit, want 1200", len(limited))
	}
}
