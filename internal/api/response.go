// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/logging"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool `json:"success"`

	// Data is omitted on writes that only acknowledge.
	Data any `json:"data,omitempty"`

	// Total is set on list responses: the number of matching items before
	// limit and offset are applied.
	Total *int64 `json:"total,omitempty"`

	Error *APIError `json:"error,omitempty"`
}

// APIError is the error half of the envelope.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
)

// respondOK writes {"success":true}.
func respondOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

func respondData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func respondList(w http.ResponseWriter, data any, total int64) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data, Total: &total})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeJSON(w, status, APIResponse{
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

// respondStoreError logs err with the request context and writes a generic
// 500. Store errors can carry paths and SQL, so they are never echoed.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error, message string) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	respondError(w, r, http.StatusInternalServerError, ErrCodeDatabaseError, message, nil)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
