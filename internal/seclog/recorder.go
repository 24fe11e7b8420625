// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package seclog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
)

// Publisher forwards saved records to subscribers.
type Publisher interface {
	PublishRecord(ctx context.Context, rec *Record) error
}

// Recorder is the write path: it stamps, saves and publishes records.
type Recorder struct {
	store     Store
	publisher Publisher
	now       func() time.Time
}

// NewRecorder creates a Recorder. publisher may be nil.
func NewRecorder(store Store, publisher Publisher) *Recorder {
	return &Recorder{store: store, publisher: publisher, now: time.Now}
}

// Record assigns a fresh ID and the server time, then appends rec. A publish
// failure is logged and does not fail the call.
func (r *Recorder) Record(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New().String()
	rec.Timestamp = r.now().UTC()

	start := time.Now()
	err := r.store.Save(ctx, rec)
	metrics.RecordStoreOperation("save", r.store.Backend(), time.Since(start), err)
	if err != nil {
		metrics.RecordSecurityLogFailure("store")
		return fmt.Errorf("save security log record: %w", err)
	}
	metrics.RecordSecurityLog(string(rec.Action))

	if r.publisher != nil {
		if err := r.publisher.PublishRecord(ctx, rec); err != nil {
			metrics.RecordSecurityLogFailure("publish")
			logging.Ctx(ctx).Warn().Err(err).Str("id", rec.ID).Msg("Failed to publish security log record")
		}
	}
	return nil
}

// Store returns the underlying store for the read path.
func (r *Recorder) Store() Store {
	return r.store
}
