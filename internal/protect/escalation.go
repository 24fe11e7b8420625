// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"time"

	"github.com/tomtom215/lectern/internal/cache"
)

// Escalator counts screenshot-family violations in a rolling window and
// signals once each time the count reaches the threshold. It re-arms when the
// count falls below the threshold again.
type Escalator struct {
	window    *cache.EventWindow
	threshold int
	fired     bool
}

// NewEscalator creates an escalator. The window retains at most a few
// multiples of threshold timestamps.
func NewEscalator(threshold int, window time.Duration) *Escalator {
	return &Escalator{
		window:    cache.NewEventWindow(window, threshold*4),
		threshold: threshold,
	}
}

// Observe records a violation at t and returns the in-window count and
// whether this observation crossed the threshold.
func (e *Escalator) Observe(t time.Time) (int, bool) {
	n := e.window.AddAt(t)
	if n < e.threshold {
		e.fired = false
		return n, false
	}
	if e.fired {
		return n, false
	}
	e.fired = true
	return n, true
}

// Reset clears the window.
func (e *Escalator) Reset() {
	e.window.Reset()
	e.fired = false
}
