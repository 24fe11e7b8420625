// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/actions"
	"github.com/tomtom215/lectern/internal/auth"
	"github.com/tomtom215/lectern/internal/seclog"
	"github.com/tomtom215/lectern/internal/validation"
)

// maxLogBodyBytes bounds a violation report. Details are small maps.
const maxLogBodyBytes = 16 << 10

// maxExportRecords caps one export so a download cannot pull the whole log
// into memory.
const maxExportRecords = 50000

// LogRequest is the body of a violation report.
type LogRequest struct {
	Action  string         `json:"action" validate:"required,action"`
	Page    string         `json:"page" validate:"required,max=2048,pagepath"`
	Details map[string]any `json:"details,omitempty" validate:"omitempty,max=32"`
}

// logQuery holds the parsed list filters.
type logQuery struct {
	Action string `json:"action" validate:"omitempty,action"`
	UserID string `json:"userId" validate:"omitempty,max=256"`
	Limit  int    `json:"limit" validate:"min=0,max=1000"`
	Offset int    `json:"offset" validate:"min=0"`
}

// LogViolation records one violation reported by a protected page. The
// user comes from the token, never from the body; the server stamps the ID
// and time.
func (h *Handler) LogViolation(w http.ResponseWriter, r *http.Request) {
	subject := auth.GetAuthSubject(r.Context())
	if subject == nil {
		respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Unauthorized: authentication required", nil)
		return
	}

	var req LogRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxLogBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body", nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	rec := &seclog.Record{
		UserID:    subject.ID,
		UserName:  subject.Username,
		UserEmail: subject.Email,
		Action:    actions.Action(req.Action),
		Page:      req.Page,
		Details:   req.Details,
		UserAgent: r.UserAgent(),
		IP:        h.resolver.ClientIP(r),
	}
	if err := h.recorder.Record(r.Context(), rec); err != nil {
		respondStoreError(w, r, err, "Failed to record security event")
		return
	}

	h.secLog.LogViolationReported(rec.UserID, rec.UserName, req.Action, rec.Page, rec.IP, rec.UserAgent)
	respondOK(w)
}

// ListLogs returns matching records newest first with the total match count.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	records, err := h.store.Query(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err, "Failed to query security logs")
		return
	}
	total, err := h.store.Count(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err, "Failed to count security logs")
		return
	}
	if records == nil {
		records = []seclog.Record{}
	}

	h.secLog.LogAuditRead(subjectID(r), r.URL.Path, "", len(records))
	respondList(w, records, total)
}

// Stats returns the monitoring aggregate.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context(), h.now())
	if err != nil {
		respondStoreError(w, r, err, "Failed to compute security stats")
		return
	}
	respondData(w, stats)
}

// Summary returns the per-action counts for the filter's action, user and
// time range.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	summary, err := h.store.Summary(r.Context(), filter)
	if err != nil {
		respondStoreError(w, r, err, "Failed to summarize security logs")
		return
	}
	if summary == nil {
		summary = []seclog.ActionCount{}
	}
	respondData(w, summary)
}

// Export downloads matching records as json, csv or cef. The list filters
// apply; limit defaults to the export cap instead of the page size.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	exporter, ok := seclog.ExporterFor(format)
	if !ok {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "format must be one of json, csv, cef", nil)
		return
	}

	filter, ok := h.parseFilter(w, r)
	if !ok {
		return
	}

	records, err := h.exportRecords(r, filter)
	if err != nil {
		respondStoreError(w, r, err, "Failed to export security logs")
		return
	}

	body, err := exporter.Export(records)
	if err != nil {
		respondStoreError(w, r, err, "Failed to export security logs")
		return
	}

	filename := fmt.Sprintf("security-log-%s.%s", h.now().UTC().Format("20060102-150405"), exporter.Extension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)

	h.secLog.LogAuditRead(subjectID(r), r.URL.Path, exporter.Extension(), len(records))
}

// exportRecords pages through the store up to maxExportRecords, or up to
// an explicit limit.
func (h *Handler) exportRecords(r *http.Request, filter seclog.Filter) ([]seclog.Record, error) {
	want := maxExportRecords
	if filter.Limit > 0 {
		want = filter.Limit
	}

	out := make([]seclog.Record, 0, min(want, seclog.MaxLimit))
	page := filter
	for len(out) < want {
		page.Limit = min(seclog.MaxLimit, want-len(out))
		batch, err := h.store.Query(r.Context(), page)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < page.Limit {
			break
		}
		page.Offset += len(batch)
	}
	return out, nil
}

// parseFilter reads action, userId, start, end, limit and offset. It writes
// a 400 and returns false on bad input.
func (h *Handler) parseFilter(w http.ResponseWriter, r *http.Request) (seclog.Filter, bool) {
	q := r.URL.Query()
	var filter seclog.Filter

	lq := logQuery{Action: q.Get("action"), UserID: q.Get("userId")}
	var err error
	if lq.Limit, err = intParam(q, "limit"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return filter, false
	}
	if lq.Offset, err = intParam(q, "offset"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return filter, false
	}
	if verr := validation.ValidateStruct(&lq); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return filter, false
	}

	filter = seclog.Filter{
		Action: actions.Action(lq.Action),
		UserID: lq.UserID,
		Limit:  lq.Limit,
		Offset: lq.Offset,
	}
	if filter.Start, err = timeParam(q, "start"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return filter, false
	}
	if filter.End, err = timeParam(q, "end"); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return filter, false
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "end must not be before start", nil)
		return filter, false
	}
	return filter, true
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

// timeParam accepts RFC 3339 timestamps.
func timeParam(q url.Values, name string) (*time.Time, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
	}
	return &t, nil
}

func subjectID(r *http.Request) string {
	if s := auth.GetAuthSubject(r.Context()); s != nil {
		return s.ID
	}
	return ""
}
