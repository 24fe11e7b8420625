// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package seclog stores the append-only security log written by protected
// pages and read by administrators.
//
// Three backends implement Store:
//   - MemoryStore: bounded ring for tests and single-node demos
//   - BadgerStore: embedded key-value store, the default
//   - DuckDBStore: SQL backend that pushes filtering and aggregation into the database
//
// Records are never updated. Prune exists for operator retention only and is
// not reachable over HTTP.
package seclog

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/lectern/internal/actions"
)

// ErrNotFound is returned by Get when no record has the requested ID.
var ErrNotFound = errors.New("security log record not found")

// Query limits applied when a Filter does not set one.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Record is one security log entry.
type Record struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	UserName  string         `json:"userName,omitempty"`
	UserEmail string         `json:"userEmail,omitempty"`
	Action    actions.Action `json:"action"`
	Page      string         `json:"page"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	UserAgent string         `json:"userAgent,omitempty"`
	IP        string         `json:"ip,omitempty"`
}

// Filter selects records. Zero fields match everything.
type Filter struct {
	Action actions.Action
	UserID string
	Start  *time.Time
	End    *time.Time

	// Limit and Offset page through results ordered newest first.
	// They are ignored by Count and Summary.
	Limit  int
	Offset int
}

// EffectiveLimit returns the page size after defaults and clamping.
func (f Filter) EffectiveLimit() int {
	switch {
	case f.Limit <= 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}

// Stats is the monitoring aggregate.
type Stats struct {
	TotalAttempts    int64 `json:"totalAttempts"`
	UniqueUsers      int64 `json:"uniqueUsers"`
	LastHourAttempts int64 `json:"lastHourAttempts"`
}

// ActionCount is one row of the group-by-action summary.
type ActionCount struct {
	Action actions.Action `json:"action"`
	Count  int64          `json:"count"`
}

// Store persists security log records. Implementations are safe for
// concurrent use.
type Store interface {
	// Save appends a record. The record must carry an ID and timestamp.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Query returns matching records, newest first.
	Query(ctx context.Context, filter Filter) ([]Record, error)

	// Count returns the number of matching records.
	Count(ctx context.Context, filter Filter) (int64, error)

	// Stats computes the monitoring aggregate. Records at or after now minus
	// one hour count toward LastHourAttempts.
	Stats(ctx context.Context, now time.Time) (*Stats, error)

	// Summary groups matching records by action, largest count first.
	Summary(ctx context.Context, filter Filter) ([]ActionCount, error)

	// Prune removes records older than olderThan and returns how many.
	Prune(ctx context.Context, olderThan time.Time) (int64, error)

	// Backend names the implementation for health output.
	Backend() string

	Close() error
}
