// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import "time"

// Classifier turns sampled signals into violations. It holds the devtools
// level and the escalation window; everything else is a pure threshold test.
type Classifier struct {
	cfg       Config
	detector  DevToolsDetector
	devTools  bool
	escalator *Escalator
}

// NewClassifier creates a classifier. detector may be nil.
func NewClassifier(cfg Config, detector DevToolsDetector) *Classifier {
	return &Classifier{
		cfg:       cfg,
		detector:  detector,
		escalator: NewEscalator(cfg.EscalationThreshold, cfg.EscalationWindow),
	}
}

// Gesture classifies a multi-pointer sample. Pointer count is a strong signal
// and is never debounced.
func (c *Classifier) Gesture(pointers int, at time.Time) Violation {
	return Violation{
		Type:    ViolationScreenshotGesture,
		At:      at,
		Details: map[string]any{"source": "pointer", "pointerCount": pointers},
	}
}

// Hidden classifies a hide-then-show span. Only durations strictly inside the
// suspect band are reported; longer spans are ordinary tab or app switches.
func (c *Classifier) Hidden(span HiddenSpan) (Violation, bool) {
	d := span.Duration()
	if d <= c.cfg.SuspectHiddenMin || d >= c.cfg.SuspectHiddenMax {
		return Violation{}, false
	}
	return Violation{
		Type:    ViolationScreenshotSuspect,
		At:      span.ShownAt,
		Details: map[string]any{"source": "visibility", "hiddenMs": d.Milliseconds()},
	}, true
}

// Viewport classifies an in-band viewport shift.
func (c *Classifier) Viewport(shift ViewportShift, at time.Time) Violation {
	return Violation{
		Type: ViolationUIObstruct,
		At:   at,
		Details: map[string]any{
			"source":   "viewport",
			"baseline": shift.Baseline,
			"height":   shift.Height,
			"delta":    shift.Delta,
		},
	}
}

// Combo classifies a recognized keyboard shortcut.
func (c *Classifier) Combo(kind ComboKind, name string, at time.Time) (Violation, bool) {
	var t ViolationType
	switch kind {
	case ComboScreenshot:
		t = ViolationScreenshotGesture
	case ComboDevTools:
		t = ViolationDevTools
	default:
		return Violation{}, false
	}
	return Violation{
		Type:    t,
		At:      at,
		Details: map[string]any{"source": "keyboard", "combo": name},
	}, true
}

// ContextMenu classifies a blocked context menu.
func (c *Classifier) ContextMenu(at time.Time) Violation {
	return Violation{Type: ViolationContextMenu, At: at, Details: map[string]any{"source": "contextmenu"}}
}

// Recording classifies the start of a display capture.
func (c *Classifier) Recording(at time.Time) Violation {
	return Violation{Type: ViolationRecording, At: at, Details: map[string]any{"source": "getDisplayMedia"}}
}

// FocusLoss classifies an acted-on blur for audit.
func (c *Classifier) FocusLoss(at time.Time, hidden bool) Violation {
	return Violation{Type: ViolationBlur, At: at, Details: map[string]any{"source": "focus", "hidden": hidden}}
}

// DevToolsGeometry classifies a devtools panel found by the geometry poll.
func (c *Classifier) DevToolsGeometry(at time.Time) Violation {
	return Violation{Type: ViolationDevTools, At: at, Details: map[string]any{"source": "geometry"}}
}

// PollDevTools samples the detector and returns the level when it changed.
// Unchanged levels and unavailable probes report changed=false.
func (c *Classifier) PollDevTools() (open, changed bool) {
	if c.detector == nil {
		return c.devTools, false
	}
	open, ok := c.detector.Detect()
	if !ok || open == c.devTools {
		return c.devTools, false
	}
	c.devTools = open
	return open, true
}

// Escalate feeds a screenshot-family violation into the rolling window and
// reports whether it crossed the escalation threshold.
func (c *Classifier) Escalate(v Violation) (count int, crossed bool) {
	if !v.Type.IsScreenshot() {
		return 0, false
	}
	return c.escalator.Observe(v.At)
}

// Reset clears the devtools level and the escalation window.
func (c *Classifier) Reset() {
	c.devTools = false
	c.escalator.Reset()
}
