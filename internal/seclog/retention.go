// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package seclog

import (
	"context"
	"time"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
)

// gcRunner is implemented by stores that reclaim space after deletes.
type gcRunner interface {
	RunGC() error
}

// Retention prunes records older than MaxAge on a fixed interval. It
// implements suture.Service.
type Retention struct {
	store    Store
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewRetention creates a retention job. interval defaults to 24h.
func NewRetention(store Store, maxAge, interval time.Duration) *Retention {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Retention{store: store, maxAge: maxAge, interval: interval, now: time.Now}
}

// RunOnce prunes once and returns how many records were removed.
func (r *Retention) RunOnce(ctx context.Context) (int64, error) {
	cutoff := r.now().Add(-r.maxAge)

	start := time.Now()
	n, err := r.store.Prune(ctx, cutoff)
	metrics.RecordStoreOperation("prune", r.store.Backend(), time.Since(start), err)
	if err != nil {
		return 0, err
	}
	metrics.RecordsPruned.Add(float64(n))

	if gc, ok := r.store.(gcRunner); ok && n > 0 {
		if err := gc.RunGC(); err != nil {
			logging.Warn().Err(err).Msg("Security log GC failed")
		}
	}
	return n, nil
}

// Serve runs until ctx is cancelled.
func (r *Retention) Serve(ctx context.Context) error {
	logging.Info().Dur("max_age", r.maxAge).Dur("interval", r.interval).Msg("Security log retention started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunOnce(ctx); err != nil {
			logging.Error().Err(err).Msg("Security log retention failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (r *Retention) String() string {
	return "seclog-retention"
}
