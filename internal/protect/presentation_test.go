// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name        string
		state       State
		wantVisible bool
		wantTitle   string
		wantFilter  string
	}{
		{"normal", State{Phase: PhaseNormal, Mode: ModeNormal}, false, "", ""},
		{"blurred", State{Phase: PhaseLocked, Mode: ModeBlurred, CountdownSeconds: 4}, true, "Content hidden", ""},
		{"screenshot", State{Phase: PhaseLocked, Mode: ModeViolation, ActiveViolation: ViolationScreenshotGesture, CountdownSeconds: 10}, true, "Screenshot blocked", ""},
		{"suspect", State{Phase: PhaseLocked, Mode: ModeViolation, ActiveViolation: ViolationScreenshotSuspect, CountdownSeconds: 1}, true, "Screenshot blocked", ""},
		{"recording", State{Phase: PhaseLocked, Mode: ModeViolation, ActiveViolation: ViolationRecording, CountdownSeconds: 3}, true, "Screen recording detected", ""},
		{"devtools", State{Phase: PhaseLocked, DevToolsOpen: true}, true, "Developer tools detected", DevToolsFilter},
		{"devtools wins over countdown", State{Phase: PhaseLocked, Mode: ModeViolation, ActiveViolation: ViolationUIObstruct, CountdownSeconds: 5, DevToolsOpen: true}, true, "Developer tools detected", DevToolsFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Render(tt.state, Chrome{})
			if v.Overlay.Visible != tt.wantVisible {
				t.Errorf("Overlay.Visible = %v, want %v", v.Overlay.Visible, tt.wantVisible)
			}
			if v.Overlay.Title != tt.wantTitle {
				t.Errorf("Overlay.Title = %q, want %q", v.Overlay.Title, tt.wantTitle)
			}
			if v.Overlay.Filter != tt.wantFilter {
				t.Errorf("Overlay.Filter = %q, want %q", v.Overlay.Filter, tt.wantFilter)
			}
		})
	}
}

func TestRender_CountdownMessage(t *testing.T) {
	v := Render(State{Phase: PhaseLocked, Mode: ModeViolation, ActiveViolation: ViolationScreenshotGesture, CountdownSeconds: 1}, Chrome{})
	if v.Overlay.Countdown != 1 {
		t.Errorf("Overlay.Countdown = %d, want 1", v.Overlay.Countdown)
	}
	if !strings.Contains(v.Overlay.Message, "1 second.") {
		t.Errorf("Overlay.Message = %q, want singular seconds", v.Overlay.Message)
	}
}

func TestRender_WatermarkAndToast(t *testing.T) {
	marks := []WatermarkMark{{X: 10, Y: 20, Rotation: -30, Opacity: 0.1}}
	c := Chrome{WatermarkEnabled: true, WatermarkText: "jane@example.com", Marks: marks, Toast: "Screenshots are not permitted."}

	v := Render(State{Phase: PhaseNormal}, c)
	if !v.Watermark.Visible || v.Watermark.Text != "jane@example.com" || len(v.Watermark.Marks) != 1 {
		t.Errorf("Watermark = %+v, want visible with one mark", v.Watermark)
	}
	if !v.Toast.Visible {
		t.Error("Toast.Visible = false, want true")
	}

	c.WatermarkText = ""
	if Render(State{}, c).Watermark.Visible {
		t.Error("Watermark without text should be hidden")
	}
}

func TestRender_DoesNotMutate(t *testing.T) {
	s := State{Phase: PhaseLocked, Mode: ModeBlurred, CountdownSeconds: 2}
	before := s
	Render(s, Chrome{})
	if s != before {
		t.Errorf("Render mutated state: %+v, want %+v", s, before)
	}
}

func TestScatterMarks_InsideViewport(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, m := range scatterMarks(rng, 50) {
		if m.X < 0 || m.X > 100 || m.Y < 0 || m.Y > 100 {
			t.Errorf("mark %+v outside viewport", m)
		}
		if m.Opacity <= 0 || m.Opacity >= 1 {
			t.Errorf("mark opacity %v out of range", m.Opacity)
		}
	}
}
