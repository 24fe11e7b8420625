// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"time"

	"github.com/tomtom215/lectern/internal/actions"
)

// SignalKind identifies a normalized browser observation.
type SignalKind string

const (
	SignalPointerDown    SignalKind = "pointer-down"
	SignalPointerUp      SignalKind = "pointer-up"
	SignalPointerCancel  SignalKind = "pointer-cancel"
	SignalVisibility     SignalKind = "visibility-change"
	SignalWindowBlur     SignalKind = "window-blur"
	SignalWindowFocus    SignalKind = "window-focus"
	SignalViewportResize SignalKind = "viewport-resize"
	SignalKeyDown        SignalKind = "keydown"
	SignalContextMenu    SignalKind = "context-menu"
	SignalDragStart      SignalKind = "drag-start"
	SignalCaptureStart   SignalKind = "capture-start"
	SignalCaptureStop    SignalKind = "capture-stop"
)

// KeyStroke is a keydown with its modifier state. Code is the physical key
// (KeyboardEvent.code) and is preferred over Key when present.
type KeyStroke struct {
	Key   string
	Code  string
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
}

// RawSignal is a momentary browser observation. Only the payload field that
// belongs to Kind is meaningful.
type RawSignal struct {
	Kind SignalKind
	At   time.Time

	PointerID      int
	Hidden         bool
	ViewportHeight float64
	Key            KeyStroke
}

// Disposition tells the platform adapter what to do with the native event that
// produced a signal.
type Disposition struct {
	// Suppress asks the adapter to call preventDefault and stopPropagation.
	Suppress bool
}

// ViolationType classifies a detected misuse.
type ViolationType string

const (
	ViolationScreenshotGesture ViolationType = "screenshot_gesture"
	ViolationScreenshotSuspect ViolationType = "screenshot_suspect"
	ViolationUIObstruct        ViolationType = "ui_obstruct"
	ViolationRecording         ViolationType = "recording_detected"
	ViolationDevTools          ViolationType = "devtools_opened"
	ViolationBlur              ViolationType = "blur_violation"
	ViolationContextMenu       ViolationType = "context_menu"
)

// Action maps a violation type to the audit log action it is reported as.
func (v ViolationType) Action() actions.Action {
	switch v {
	case ViolationScreenshotGesture:
		return actions.ScreenshotAttempt
	case ViolationScreenshotSuspect:
		return actions.ScreenshotSuspect
	case ViolationUIObstruct:
		return actions.UIObstruct
	case ViolationRecording:
		return actions.RecordingDetected
	case ViolationDevTools:
		return actions.DevToolsOpened
	case ViolationBlur:
		return actions.BlurViolation
	case ViolationContextMenu:
		return actions.ContextMenu
	default:
		return actions.Action(v)
	}
}

// Locks reports whether a violation of this type starts a violation lockout.
func (v ViolationType) Locks() bool {
	switch v {
	case ViolationScreenshotGesture, ViolationScreenshotSuspect, ViolationUIObstruct,
		ViolationRecording, ViolationDevTools:
		return true
	default:
		return false
	}
}

// IsScreenshot reports whether v counts toward screenshot escalation.
func (v ViolationType) IsScreenshot() bool {
	return v == ViolationScreenshotGesture || v == ViolationScreenshotSuspect
}

// Violation is a classified event produced by the Classifier.
type Violation struct {
	Type    ViolationType
	At      time.Time
	Details map[string]any
}

// Phase is the coarse lockout phase rendered by the presentation layer.
type Phase string

const (
	PhaseNormal Phase = "normal"
	PhaseLocked Phase = "locked"
)

// Mode records which countdown-driven lockout is active.
type Mode string

const (
	ModeNormal    Mode = "normal"
	ModeBlurred   Mode = "blurred"
	ModeViolation Mode = "violation"
)

// State is the single source of truth for the UI. Only the Machine mutates it.
type State struct {
	Phase            Phase
	Mode             Mode
	ActiveViolation  ViolationType
	CountdownSeconds int
	AttemptCount     int
	DevToolsOpen     bool
	Recording        bool
}

// Status is the activation-contract view of State returned to pages.
type Status struct {
	IsBlurred      bool          `json:"isBlurred"`
	IsRecording    bool          `json:"isRecording"`
	IsDevToolsOpen bool          `json:"isDevToolsOpen"`
	IsViolation    bool          `json:"isViolation"`
	Countdown      int           `json:"countdown"`
	ViolationType  ViolationType `json:"violationType,omitempty"`
	AttemptCount   int           `json:"attemptCount"`
}

// Status converts the state into the activation-contract shape.
func (s State) Status() Status {
	return Status{
		IsBlurred:      s.Mode == ModeBlurred,
		IsRecording:    s.Recording,
		IsDevToolsOpen: s.DevToolsOpen,
		IsViolation:    s.Mode == ModeViolation,
		Countdown:      s.CountdownSeconds,
		ViolationType:  s.ActiveViolation,
		AttemptCount:   s.AttemptCount,
	}
}
