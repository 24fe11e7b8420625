// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/lectern/internal/detection"
)

// ListAlerts returns detection alerts, newest first.
//
// Query parameters: ruleType, userId, acknowledged (true|false), limit,
// offset.
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Detection is disabled", nil)
		return
	}

	q := r.URL.Query()
	filter := detection.AlertFilter{
		RuleType: detection.RuleType(q.Get("ruleType")),
		UserID:   q.Get("userId"),
	}
	if v := q.Get("acknowledged"); v != "" {
		ack, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "acknowledged must be true or false", nil)
			return
		}
		filter.Acknowledged = &ack
	}
	var err error
	if filter.Limit, err = intParam(q, "limit"); err != nil || filter.Limit < 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a non-negative integer", nil)
		return
	}
	if filter.Offset, err = intParam(q, "offset"); err != nil || filter.Offset < 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "offset must be a non-negative integer", nil)
		return
	}

	alerts, err := h.alerts.ListAlerts(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err, "Failed to list alerts")
		return
	}
	total, err := h.alerts.GetAlertCount(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err, "Failed to count alerts")
		return
	}
	if alerts == nil {
		alerts = []detection.Alert{}
	}
	respondList(w, alerts, int64(total))
}

// AcknowledgeAlert marks the alert in the {id} path parameter as handled by
// the calling administrator.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	if h.alerts == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Detection is disabled", nil)
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "alert id is required", nil)
		return
	}

	by := subjectID(r)
	if err := h.alerts.AcknowledgeAlert(r.Context(), id, by); err != nil {
		if errors.Is(err, detection.ErrAlertNotFound) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Alert not found", nil)
			return
		}
		respondStoreError(w, r, err, "Failed to acknowledge alert")
		return
	}

	h.secLog.LogAlertAcknowledged(id, by)

	alert, err := h.alerts.GetAlert(r.Context(), id)
	if err != nil {
		respondOK(w)
		return
	}
	respondData(w, alert)
}
