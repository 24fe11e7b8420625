// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package validation validates decoded API requests with
// go-playground/validator v10.
//
// A single validator instance is shared across the process; it caches struct
// metadata and is safe for concurrent use. Field names in errors are the JSON
// names, so a client sees "page is required" rather than "Page is required".
//
// # Custom Tags
//
//   - action: the value is one of the known violation actions
//   - pagepath: an absolute URL path with no whitespace or control characters
//
// # Usage
//
//	type LogRequest struct {
//	    Action string         `json:"action" validate:"required,action"`
//	    Page   string         `json:"page" validate:"required,max=2048,pagepath"`
//	    Details map[string]any `json:"details" validate:"omitempty,max=32"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// ToAPIError never includes submitted values, so a rejected body cannot be
// reflected back to the caller.
package validation
