// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/auth"
	"github.com/tomtom215/lectern/internal/authz"
	"github.com/tomtom215/lectern/internal/detection"
	"github.com/tomtom215/lectern/internal/protect"
	"github.com/tomtom215/lectern/internal/seclog"
	ws "github.com/tomtom215/lectern/internal/websocket"
)

const testSecret = "test-secret-with-at-least-32-characters!"

type testEnv struct {
	store   *seclog.MemoryStore
	alerts  *detection.MemoryAlertStore
	hub     *ws.Hub
	handler *Handler
	server  http.Handler
	jwt     *auth.JWTManager
}

type envOption func(*ChiMiddlewareConfig, *HandlerDeps)

func withRateLimit(requests, logRequests int) envOption {
	return func(c *ChiMiddlewareConfig, _ *HandlerDeps) {
		c.RateLimitDisabled = false
		c.RateLimitRequests = requests
		c.LogRateLimitRequests = logRequests
		c.RateLimitWindow = time.Minute
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store := seclog.NewMemoryStore(1000)
	alerts := detection.NewMemoryAlertStore(100)
	hub := ws.NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()
	t.Cleanup(cancel)

	jwtManager, err := auth.NewJWTManager(testSecret, time.Hour, "lectern-test")
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	deps := HandlerDeps{
		Recorder:    seclog.NewRecorder(store, nil),
		Alerts:      alerts,
		Hub:         hub,
		Protection:  protect.DefaultConfig(),
		CORSOrigins: []string{"https://learn.example.com"},
	}
	for _, opt := range opts {
		opt(mwCfg, &deps)
	}

	handler := NewHandler(deps)
	router := NewRouter(handler, NewChiMiddleware(mwCfg, deps.Resolver), auth.NewMiddleware(jwtManager, ""), authz.NewMiddleware(enforcer))

	return &testEnv{
		store:   store,
		alerts:  alerts,
		hub:     hub,
		handler: handler,
		server:  router.Setup(),
		jwt:     jwtManager,
	}
}

func (e *testEnv) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := e.jwt.GenerateToken(userID, userID+"-name", userID+"@example.com", role)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

// do sends a request with an optional bearer token and JSON body.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:51234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Total   *int64          `json:"total"`
	Error   *APIError       `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func seed(t *testing.T, store seclog.Store, recs ...seclog.Record) {
	t.Helper()
	for i := range recs {
		if recs[i].ID == "" {
			recs[i].ID = "rec-" + string(rune('a'+i))
		}
		if err := store.Save(context.Background(), &recs[i]); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
}

// failingStore fails every operation.
type failingStore struct{}

var errStoreDown = errors.New("disk /var/lib/lectern is full")

func (failingStore) Save(context.Context, *seclog.Record) error { return errStoreDown }
func (failingStore) Get(context.Context, string) (*seclog.Record, error) {
	return nil, errStoreDown
}
func (failingStore) Query(context.Context, seclog.Filter) ([]seclog.Record, error) {
	return nil, errStoreDown
}
func (failingStore) Count(context.Context, seclog.Filter) (int64, error) { return 0, errStoreDown }
func (failingStore) Stats(context.Context, time.Time) (*seclog.Stats, error) {
	return nil, errStoreDown
}
func (failingStore) Summary(context.Context, seclog.Filter) ([]seclog.ActionCount, error) {
	return nil, errStoreDown
}
func (failingStore) Prune(context.Context, time.Time) (int64, error) { return 0, errStoreDown }
func (failingStore) Backend() string                                 { return "failing" }
func (failingStore) Close() error                                    { return nil }
