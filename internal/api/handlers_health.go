// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/lectern/internal/seclog"
)

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status        string  `json:"status"`
	Backend       string  `json:"backend"`
	StoreOK       bool    `json:"store_ok"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// Health reports the store backend and the live feed client count. A store
// that cannot answer a one-record query within two seconds marks the service
// degraded with status 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	_, err := h.store.Query(ctx, seclog.Filter{Limit: 1})
	health := HealthStatus{
		Status:        "healthy",
		Backend:       h.store.Backend(),
		StoreOK:       err == nil,
		UptimeSeconds: time.Since(h.startTime).Seconds(),
	}
	if h.hub != nil {
		health.WSClients = h.hub.GetClientCount()
	}

	status := http.StatusOK
	if err != nil {
		health.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, APIResponse{Success: err == nil, Data: health})
}

// ProtectionConfig returns the server-governed protection bands so pages
// mount with centrally tuned thresholds.
func (h *Handler) ProtectionConfig(w http.ResponseWriter, r *http.Request) {
	respondData(w, h.protection)
}
