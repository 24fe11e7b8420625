// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"math"
	"time"
)

// PointerTracker counts concurrently active pointers.
type PointerTracker struct {
	threshold int
	active    map[int]struct{}
}

// NewPointerTracker creates a tracker that fires at threshold active pointers.
func NewPointerTracker(threshold int) *PointerTracker {
	return &PointerTracker{threshold: threshold, active: make(map[int]struct{})}
}

// Down records a pointer. When the active count reaches the threshold it
// returns the count and clears the set, so each crossing fires once.
func (p *PointerTracker) Down(id int) (int, bool) {
	p.active[id] = struct{}{}
	n := len(p.active)
	if n < p.threshold {
		return 0, false
	}
	clear(p.active)
	return n, true
}

// Up releases a pointer.
func (p *PointerTracker) Up(id int) {
	delete(p.active, id)
}

// Cancel clears every pointer. Cancel storms from OS gesture interception
// would otherwise leave stale ids behind.
func (p *PointerTracker) Cancel() {
	clear(p.active)
}

// Active returns the current active pointer count.
func (p *PointerTracker) Active() int {
	return len(p.active)
}

// ViewportShift is an in-band change of visual viewport height.
type ViewportShift struct {
	Baseline float64
	Height   float64
	Delta    float64
}

// ViewportTracker compares viewport heights against a baseline that settles
// to the last observed height after a quiet period.
type ViewportTracker struct {
	minDelta, maxDelta float64
	settle             time.Duration

	seeded     bool
	baseline   float64
	lastHeight float64
	lastAt     time.Time
}

// NewViewportTracker creates a tracker for the open band (minDelta, maxDelta).
func NewViewportTracker(minDelta, maxDelta float64, settle time.Duration) *ViewportTracker {
	return &ViewportTracker{minDelta: minDelta, maxDelta: maxDelta, settle: settle}
}

// Resize observes a new height at t and reports an in-band shift.
func (v *ViewportTracker) Resize(height float64, t time.Time) (ViewportShift, bool) {
	if !v.seeded {
		v.seeded = true
		v.baseline, v.lastHeight, v.lastAt = height, height, t
		return ViewportShift{}, false
	}
	if t.Sub(v.lastAt) >= v.settle {
		v.baseline = v.lastHeight
	}
	v.lastHeight, v.lastAt = height, t

	delta := math.Abs(v.baseline - height)
	if delta > v.minDelta && delta < v.maxDelta {
		return ViewportShift{Baseline: v.baseline, Height: height, Delta: delta}, true
	}
	return ViewportShift{}, false
}

// HiddenSpan is one hide-then-show of the document.
type HiddenSpan struct {
	HiddenAt time.Time
	ShownAt  time.Time
}

// Duration returns the span length clamped at zero.
func (h HiddenSpan) Duration() time.Duration {
	d := h.ShownAt.Sub(h.HiddenAt)
	if d < 0 {
		return 0
	}
	return d
}

// VisibilityTracker pairs hide and show timestamps.
type VisibilityTracker struct {
	hidden   bool
	hiddenAt time.Time
}

// Change records a visibility transition. A show that follows a hide yields
// the span; repeated notifications of the same state are ignored.
func (v *VisibilityTracker) Change(hidden bool, t time.Time) (HiddenSpan, bool) {
	if hidden {
		if !v.hidden {
			v.hidden, v.hiddenAt = true, t
		}
		return HiddenSpan{}, false
	}
	if !v.hidden {
		return HiddenSpan{}, false
	}
	v.hidden = false
	return HiddenSpan{HiddenAt: v.hiddenAt, ShownAt: t}, true
}

// Hidden reports whether the document is currently hidden.
func (v *VisibilityTracker) Hidden() bool {
	return v.hidden
}

// Sampler owns the per-signal trackers of a session.
type Sampler struct {
	Pointers   *PointerTracker
	Viewport   *ViewportTracker
	Visibility *VisibilityTracker
}

// NewSampler builds the trackers from cfg.
func NewSampler(cfg Config) *Sampler {
	return &Sampler{
		Pointers:   NewPointerTracker(cfg.PointerThreshold),
		Viewport:   NewViewportTracker(cfg.ViewportMinDelta, cfg.ViewportMaxDelta, cfg.ViewportSettle),
		Visibility: &VisibilityTracker{},
	}
}
