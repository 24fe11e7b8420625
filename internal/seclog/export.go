// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package seclog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/actions"
)

// Exporter renders records for download or SIEM ingestion.
type Exporter interface {
	Export(records []Record) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExporterFor returns the exporter for a format name: json, csv or cef.
func ExporterFor(format string) (Exporter, bool) {
	switch strings.ToLower(format) {
	case "", "json":
		return JSONExporter{}, true
	case "csv":
		return CSVExporter{}, true
	case "cef":
		return NewCEFExporter(), true
	default:
		return nil, false
	}
}

// JSONExporter exports records as an indented JSON array.
type JSONExporter struct{}

func (JSONExporter) Export(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

func (JSONExporter) ContentType() string { return "application/json" }
func (JSONExporter) Extension() string   { return "json" }

// CSVExporter exports one row per record with details as JSON text.
type CSVExporter struct{}

var csvHeader = []string{"id", "timestamp", "user_id", "user_name", "user_email", "action", "page", "ip", "user_agent", "details"}

func (CSVExporter) Export(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for i := range records {
		rec := &records[i]
		details := ""
		if len(rec.Details) > 0 {
			data, err := json.Marshal(rec.Details)
			if err != nil {
				return nil, fmt.Errorf("marshal details for %s: %w", rec.ID, err)
			}
			details = string(data)
		}
		if err := w.Write([]string{
			rec.ID,
			rec.Timestamp.UTC().Format(time.RFC3339Nano),
			rec.UserID,
			rec.UserName,
			rec.UserEmail,
			string(rec.Action),
			rec.Page,
			rec.IP,
			rec.UserAgent,
			details,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (CSVExporter) ContentType() string { return "text/csv" }
func (CSVExporter) Extension() string   { return "csv" }

// CEFExporter exports records in Common Event Format.
// CEF:Version|Device Vendor|Device Product|Device Version|Signature ID|Name|Severity|Extension
type CEFExporter struct {
	DeviceVendor  string
	DeviceProduct string
	DeviceVersion string
}

// NewCEFExporter creates a CEF exporter with defaults.
func NewCEFExporter() *CEFExporter {
	return &CEFExporter{
		DeviceVendor:  "Lectern",
		DeviceProduct: "ContentProtection",
		DeviceVersion: "1.0",
	}
}

func (e *CEFExporter) Export(records []Record) ([]byte, error) {
	lines := make([]string, 0, len(records))
	for i := range records {
		rec := &records[i]
		lines = append(lines, fmt.Sprintf("CEF:0|%s|%s|%s|%s|%s|%d|%s",
			e.escapeHeader(e.DeviceVendor),
			e.escapeHeader(e.DeviceProduct),
			e.escapeHeader(e.DeviceVersion),
			e.escapeHeader(string(rec.Action)),
			e.escapeHeader(cefName(rec.Action)),
			cefSeverity(rec.Action),
			e.buildExtension(rec),
		))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

func (e *CEFExporter) ContentType() string { return "text/plain" }
func (e *CEFExporter) Extension() string   { return "cef" }

func cefName(a actions.Action) string {
	return strings.ReplaceAll(string(a), "_", " ")
}

// cefSeverity maps an action to CEF severity (0-10).
func cefSeverity(a actions.Action) int {
	switch a {
	case actions.RepeatedScreenshotAttempts, actions.RecordingDetected:
		return 8
	case actions.ScreenshotAttempt, actions.DevToolsOpened:
		return 6
	case actions.ScreenshotSuspect, actions.UIObstruct:
		return 5
	default:
		return 3
	}
}

func (e *CEFExporter) buildExtension(rec *Record) string {
	parts := []string{fmt.Sprintf("rt=%d", rec.Timestamp.UnixMilli())}
	if rec.UserID != "" {
		parts = append(parts, "suid="+e.escapeExt(rec.UserID))
	}
	if rec.UserName != "" {
		parts = append(parts, "suser="+e.escapeExt(rec.UserName))
	}
	if rec.IP != "" {
		parts = append(parts, "src="+e.escapeExt(rec.IP))
	}
	parts = append(parts, "act="+e.escapeExt(string(rec.Action)))
	if rec.Page != "" {
		parts = append(parts, "request="+e.escapeExt(rec.Page))
	}
	if rec.UserAgent != "" {
		parts = append(parts, "requestClientApplication="+e.escapeExt(rec.UserAgent))
	}
	parts = append(parts, "externalId="+e.escapeExt(rec.ID))
	return strings.Join(parts, " ")
}

// escapeHeader escapes pipes and backslashes in header fields.
func (e *CEFExporter) escapeHeader(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.NewReplacer("\n", " ", "\r", "").Replace(s)
}

// escapeExt escapes equals signs and backslashes in extension values.
func (e *CEFExporter) escapeExt(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "=", "\\=")
	return strings.NewReplacer("\n", " ", "\r", "").Replace(s)
}
