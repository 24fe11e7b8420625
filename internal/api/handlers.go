// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/lectern/internal/detection"
	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/protect"
	"github.com/tomtom215/lectern/internal/seclog"
	ws "github.com/tomtom215/lectern/internal/websocket"
)

// HandlerDeps are the collaborators of Handler. Recorder is required; the
// rest are optional and their endpoints answer 503 when absent.
type HandlerDeps struct {
	Recorder   *seclog.Recorder
	Alerts     detection.AlertStore
	Hub        *ws.Hub
	Protection protect.Config
	Resolver   *IPResolver

	// CORSOrigins also gates websocket upgrades.
	CORSOrigins []string
}

// Handler serves the security log API.
type Handler struct {
	recorder    *seclog.Recorder
	store       seclog.Store
	alerts      detection.AlertStore
	hub         *ws.Hub
	protection  protect.Config
	resolver    *IPResolver
	corsOrigins []string
	secLog      *logging.SecurityLogger
	startTime   time.Time
	now         func() time.Time
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	resolver := deps.Resolver
	if resolver == nil {
		resolver = &IPResolver{}
	}
	return &Handler{
		recorder:    deps.Recorder,
		store:       deps.Recorder.Store(),
		alerts:      deps.Alerts,
		hub:         deps.Hub,
		protection:  deps.Protection,
		resolver:    resolver,
		corsOrigins: deps.CORSOrigins,
		secLog:      logging.NewSecurityLogger(),
		startTime:   time.Now(),
		now:         time.Now,
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin requires an Origin header that matches the CORS
// allow list. Browsers always send one; omitting it would bypass CORS.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters and bounds the length of a
// client supplied value before it is logged.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}
