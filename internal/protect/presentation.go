// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"fmt"
	"math/rand/v2"
)

// WatermarkMark is one floating watermark. X and Y are viewport percentages.
type WatermarkMark struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
}

// Chrome is the presentation state that is not part of the lockout state.
type Chrome struct {
	WatermarkEnabled bool
	WatermarkText    string
	Marks            []WatermarkMark
	Toast            string
}

// Overlay is the full-viewport lockout.
type Overlay struct {
	Visible   bool   `json:"visible"`
	Title     string `json:"title,omitempty"`
	Message   string `json:"message,omitempty"`
	Countdown int    `json:"countdown,omitempty"`
	Filter    string `json:"filter,omitempty"`
}

// Watermark is the floating identity text.
type Watermark struct {
	Visible bool            `json:"visible"`
	Text    string          `json:"text,omitempty"`
	Marks   []WatermarkMark `json:"marks,omitempty"`
}

// Toast is the transient warning shown for a new violation.
type Toast struct {
	Visible bool   `json:"visible"`
	Message string `json:"message,omitempty"`
}

// View is everything the platform adapter paints.
type View struct {
	Overlay   Overlay   `json:"overlay"`
	Watermark Watermark `json:"watermark"`
	Toast     Toast     `json:"toast"`
}

// DevToolsFilter is the CSS filter applied to content while devtools are open.
const DevToolsFilter = "brightness(0)"

// Render derives the view from state and chrome. It has no side effects.
func Render(s State, c Chrome) View {
	var v View

	switch {
	case s.DevToolsOpen:
		v.Overlay = Overlay{
			Visible: true,
			Title:   "Developer tools detected",
			Message: "Close developer tools to continue viewing this content.",
			Filter:  DevToolsFilter,
		}
	case s.Mode == ModeViolation && s.CountdownSeconds > 0:
		v.Overlay = Overlay{
			Visible:   true,
			Title:     violationTitle(s.ActiveViolation),
			Message:   fmt.Sprintf("Content will be visible again in %d %s.", s.CountdownSeconds, seconds(s.CountdownSeconds)),
			Countdown: s.CountdownSeconds,
		}
	case s.Mode == ModeBlurred && s.CountdownSeconds > 0:
		v.Overlay = Overlay{
			Visible:   true,
			Title:     "Content hidden",
			Message:   fmt.Sprintf("Content is hidden while this window is not in focus. Resuming in %d %s.", s.CountdownSeconds, seconds(s.CountdownSeconds)),
			Countdown: s.CountdownSeconds,
		}
	}

	if c.WatermarkEnabled && c.WatermarkText != "" {
		v.Watermark = Watermark{Visible: true, Text: c.WatermarkText, Marks: c.Marks}
	}
	if c.Toast != "" {
		v.Toast = Toast{Visible: true, Message: c.Toast}
	}
	return v
}

func violationTitle(t ViolationType) string {
	switch t {
	case ViolationScreenshotGesture, ViolationScreenshotSuspect:
		return "Screenshot blocked"
	case ViolationUIObstruct:
		return "Screen capture tool detected"
	case ViolationRecording:
		return "Screen recording detected"
	case ViolationDevTools:
		return "Developer tools blocked"
	default:
		return "Content protected"
	}
}

// toastMessage is the warning shown when v is first detected.
func toastMessage(v ViolationType) string {
	switch v {
	case ViolationRecording:
		return "Screen recording is not permitted. This attempt has been logged."
	case ViolationDevTools:
		return "Developer tools are not permitted on protected content."
	case ViolationContextMenu:
		return "Right-click is disabled on protected content."
	default:
		return "Screenshots are not permitted. This attempt has been logged."
	}
}

func seconds(n int) string {
	if n == 1 {
		return "second"
	}
	return "seconds"
}

// scatterMarks places n marks at random positions inside the viewport.
func scatterMarks(rng *rand.Rand, n int) []WatermarkMark {
	marks := make([]WatermarkMark, n)
	for i := range marks {
		marks[i] = WatermarkMark{
			X:        5 + rng.Float64()*80,
			Y:        5 + rng.Float64()*85,
			Rotation: -45 + rng.Float64()*30,
			Opacity:  0.08 + rng.Float64()*0.07,
		}
	}
	return marks
}
