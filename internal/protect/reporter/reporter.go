// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package reporter delivers protection reports to the server security log.
package reporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/protect"
)

// DefaultEndpoint is the security log path on the serving origin.
const DefaultEndpoint = "/api/v1/security/log"

// Config configures a Reporter.
type Config struct {
	// Endpoint is the absolute or origin-relative URL of the log endpoint.
	Endpoint string

	// Token is sent as a bearer token when set; otherwise the browser's
	// session cookie authenticates the request.
	Token string

	Timeout time.Duration

	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration

	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Reporter implements protect.Sink over HTTP. There is no retry: a failed
// report is lost, and while the breaker is open reports are dropped without a
// request.
type Reporter struct {
	endpoint string
	token    string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[struct{}]
}

// logRequest is the POST body accepted by the security log endpoint.
type logRequest struct {
	Action  string         `json:"action"`
	Page    string         `json:"page"`
	Details map[string]any `json:"details,omitempty"`
}

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("security log returned status %d", e.Code)
}

// New creates a Reporter.
func New(cfg Config) *Reporter {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "security-log",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors mean the request itself is wrong, not that the
		// server is unavailable.
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Debug().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Reporter circuit breaker state change")
		},
	})

	return &Reporter{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   client,
		cb:       cb,
	}
}

// Send implements protect.Sink.
func (r *Reporter) Send(ctx context.Context, rep protect.Report) error {
	_, err := r.cb.Execute(func() (struct{}, error) {
		return struct{}{}, r.post(ctx, rep)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.Debug().Str("action", rep.Action.String()).Msg("Security log unavailable, dropping report")
	}
	return err
}

// State returns the breaker state.
func (r *Reporter) State() gobreaker.State {
	return r.cb.State()
}

func (r *Reporter) post(ctx context.Context, rep protect.Report) error {
	body, err := json.Marshal(logRequest{
		Action:  rep.Action.String(),
		Page:    rep.Page,
		Details: rep.Details,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal security report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create security report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send security report: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

var _ protect.Sink = (*Reporter)(nil)
