// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package detection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/lectern/internal/cache"
	"github.com/tomtom215/lectern/internal/seclog"
)

// maxTrackedUsers bounds per-user detector state.
const maxTrackedUsers = 10000

// edgeLatch reports a rising edge once per key until the condition clears.
type edgeLatch struct {
	mu    sync.Mutex
	fired map[string]bool
}

func newEdgeLatch() *edgeLatch {
	return &edgeLatch{fired: make(map[string]bool)}
}

// update returns true when above turns true for key.
func (l *edgeLatch) update(key string, above bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !above {
		delete(l.fired, key)
		return false
	}
	if l.fired[key] {
		return false
	}
	if len(l.fired) >= maxTrackedUsers {
		l.fired = make(map[string]bool)
	}
	l.fired[key] = true
	return true
}

// RepeatedAttemptsDetector raises an alert when a user's screenshot-family
// records reach the threshold inside the window. It fires once per crossing
// and re-arms after the windowed count drops below the threshold.
type RepeatedAttemptsDetector struct {
	mu      sync.RWMutex
	config  RepeatedAttemptsConfig
	enabled bool

	windows *cache.EventWindowStore
	latch   *edgeLatch
}

// NewRepeatedAttemptsDetector creates the detector.
func NewRepeatedAttemptsDetector(cfg RepeatedAttemptsConfig) *RepeatedAttemptsDetector {
	return &RepeatedAttemptsDetector{
		config:  cfg,
		enabled: cfg.Enabled,
		windows: cache.NewEventWindowStore(cfg.Window, cfg.Threshold*4, maxTrackedUsers),
		latch:   newEdgeLatch(),
	}
}

// Type implements Detector.
func (d *RepeatedAttemptsDetector) Type() RuleType {
	return RuleTypeRepeatedAttempts
}

// Check implements Detector.
func (d *RepeatedAttemptsDetector) Check(_ context.Context, rec *seclog.Record) (*Alert, error) {
	if rec == nil || rec.UserID == "" || !rec.Action.IsScreenshot() {
		return nil, nil
	}

	count := d.windows.AddAt(rec.UserID, rec.Timestamp)
	if !d.latch.update(rec.UserID, count >= d.config.Threshold) {
		return nil, nil
	}

	return &Alert{
		ID:       uuid.New().String(),
		RuleType: RuleTypeRepeatedAttempts,
		UserID:   rec.UserID,
		UserName: rec.UserName,
		Severity: SeverityWarning,
		Title:    "Repeated screenshot attempts",
		Message: fmt.Sprintf("%s made %d screenshot attempts within %s",
			displayName(rec), count, d.config.Window),
		Metadata: map[string]any{
			"count":     count,
			"threshold": d.config.Threshold,
			"window":    d.config.Window.String(),
			"page":      rec.Page,
			"lastId":    rec.ID,
		},
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Enabled implements Detector.
func (d *RepeatedAttemptsDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled implements Detector.
func (d *RepeatedAttemptsDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

func displayName(rec *seclog.Record) string {
	if rec.UserName != "" {
		return rec.UserName
	}
	return "user " + rec.UserID
}
