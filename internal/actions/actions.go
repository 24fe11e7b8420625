// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package actions defines the security log action vocabulary shared by the
// browser engine (which reports actions) and the server (which validates and
// aggregates them). It has no dependencies so it can be compiled to wasm.
package actions

// Action identifies what a security log record reports.
type Action string

const (
	ScreenshotAttempt          Action = "screenshot_attempt"
	ScreenshotSuspect          Action = "screenshot_suspect"
	UIObstruct                 Action = "ui_obstruct"
	RecordingDetected          Action = "recording_detected"
	DevToolsOpened             Action = "devtools_opened"
	BlurViolation              Action = "blur_violation"
	ContextMenu                Action = "context_menu"
	RepeatedScreenshotAttempts Action = "repeated_screenshot_attempts"
)

// All lists every known action in display order.
var All = []Action{
	ScreenshotAttempt,
	ScreenshotSuspect,
	UIObstruct,
	RecordingDetected,
	DevToolsOpened,
	BlurViolation,
	ContextMenu,
	RepeatedScreenshotAttempts,
}

// OneOf is the validator tag body listing the accepted action values.
const OneOf = "screenshot_attempt screenshot_suspect ui_obstruct recording_detected devtools_opened blur_violation context_menu repeated_screenshot_attempts"

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range All {
		if a == known {
			return true
		}
	}
	return false
}

// IsScreenshot reports whether a belongs to the screenshot family counted by
// escalation rules.
func (a Action) IsScreenshot() bool {
	return a == ScreenshotAttempt || a == ScreenshotSuspect
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}
