// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package detection

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/lectern/internal/cache"
	"github.com/tomtom215/lectern/internal/seclog"
)

// MultiVectorDetector raises an alert when one user triggers several
// distinct actions within a short window, e.g. a shortcut, then devtools,
// then a recording.
type MultiVectorDetector struct {
	mu      sync.RWMutex
	config  MultiVectorConfig
	enabled bool

	actions *cache.UniqueValueStore
	latch   *edgeLatch
}

// NewMultiVectorDetector creates the detector.
func NewMultiVectorDetector(cfg MultiVectorConfig) *MultiVectorDetector {
	return &MultiVectorDetector{
		config:  cfg,
		enabled: cfg.Enabled,
		actions: cache.NewUniqueValueStore(cfg.Window, maxTrackedUsers),
		latch:   newEdgeLatch(),
	}
}

// Type implements Detector.
func (d *MultiVectorDetector) Type() RuleType {
	return RuleTypeMultiVector
}

// Check implements Detector.
func (d *MultiVectorDetector) Check(_ context.Context, rec *seclog.Record) (*Alert, error) {
	if rec == nil || rec.UserID == "" || rec.Action == "" {
		return nil, nil
	}

	distinct := d.actions.AddAt(rec.UserID, rec.Action.String(), rec.Timestamp)
	if !d.latch.update(rec.UserID, distinct >= d.config.MinDistinct) {
		return nil, nil
	}

	seen := d.actions.ValuesAt(rec.UserID, rec.Timestamp)
	sort.Strings(seen)

	return &Alert{
		ID:       uuid.New().String(),
		RuleType: RuleTypeMultiVector,
		UserID:   rec.UserID,
		UserName: rec.UserName,
		Severity: SeverityCritical,
		Title:    "Multiple protection bypass vectors",
		Message: fmt.Sprintf("%s triggered %d different protections within %s: %s",
			displayName(rec), distinct, d.config.Window, strings.Join(seen, ", ")),
		Metadata: map[string]any{
			"actions": seen,
			"window":  d.config.Window.String(),
			"page":    rec.Page,
			"lastId":  rec.ID,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Enabled implements Detector.
func (d *MultiVectorDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled implements Detector.
func (d *MultiVectorDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
