// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package detection

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/lectern/internal/actions"
	"github.com/tomtom215/lectern/internal/seclog"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func record(userID string, action actions.Action, at time.Time) *seclog.Record {
	return &seclog.Record{
		ID:        "rec-" + at.Format("150405.000"),
		UserID:    userID,
		UserName:  "Ada",
		Action:    action,
		Page:      "/courses/go-101/lessons/3",
		Timestamp: at,
	}
}

func TestRepeatedAttemptsDetector_FiresOncePerCrossing(t *testing.T) {
	d := NewRepeatedAttemptsDetector(RepeatedAttemptsConfig{Enabled: true, Threshold: 5, Window: time.Hour})
	ctx := context.Background()

	var fired []int
	for i := 0; i < 8; i++ {
		alert, err := d.Check(ctx, record("u1", actions.ScreenshotAttempt, baseTime.Add(time.Duration(i)*time.Minute)))
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if alert != nil {
			fired = append(fired, i+1)
			if alert.RuleType != RuleTypeRepeatedAttempts {
				t.Errorf("RuleType = %q, want %q", alert.RuleType, RuleTypeRepeatedAttempts)
			}
			if alert.UserID != "u1" {
				t.Errorf("UserID = %q, want u1", alert.UserID)
			}
			if alert.Metadata["count"] != 5 {
				t.Errorf("count = %v, want 5", alert.Metadata["count"])
			}
		}
	}
	if len(fired) != 1 || fired[0] != 5 {
		t.Errorf("fired on attempts %v, want [5]", fired)
	}
}

func TestRepeatedAttemptsDetector_RearmsAfterWindow(t *testing.T) {
	d := NewRepeatedAttemptsDetector(RepeatedAttemptsConfig{Enabled: true, Threshold: 3, Window: time.Hour})
	ctx := context.Background()

	alerts := 0
	check := func(at time.Time) {
		alert, _ := d.Check(ctx, record("u1", actions.ScreenshotSuspect, at))
		if alert != nil {
			alerts++
		}
	}

	for i := 0; i < 3; i++ {
		check(baseTime.Add(time.Duration(i) * time.Minute))
	}
	// Count falls to 1, re-arming the rule.
	check(baseTime.Add(2 * time.Hour))
	check(baseTime.Add(2*time.Hour + time.Minute))
	check(baseTime.Add(2*time.Hour + 2*time.Minute))

	if alerts != 2 {
		t.Errorf("alerts = %d, want 2", alerts)
	}
}

func TestRepeatedAttemptsDetector_IgnoresOtherActions(t *testing.T) {
	d := NewRepeatedAttemptsDetector(RepeatedAttemptsConfig{Enabled: true, Threshold: 2, Window: time.Hour})
	ctx := context.Background()

	for i, a := range []actions.Action{actions.DevToolsOpened, actions.ContextMenu, actions.BlurViolation, actions.RecordingDetected} {
		alert, _ := d.Check(ctx, record("u1", a, baseTime.Add(time.Duration(i)*time.Second)))
		if alert != nil {
			t.Errorf("Check(%s) fired, want no alert", a)
		}
	}
}

func TestRepeatedAttemptsDetector_PerUser(t *testing.T) {
	d := NewRepeatedAttemptsDetector(RepeatedAttemptsConfig{Enabled: true, Threshold: 2, Window: time.Hour})
	ctx := context.Background()

	a1, _ := d.Check(ctx, record("u1", actions.ScreenshotAttempt, baseTime))
	a2, _ := d.Check(ctx, record("u2", actions.ScreenshotAttempt, baseTime.Add(time.Second)))
	if a1 != nil || a2 != nil {
		t.Error("single attempts from two users should not fire")
	}

	a3, _ := d.Check(ctx, record("u2", actions.ScreenshotAttempt, baseTime.Add(2*time.Second)))
	if a3 == nil || a3.UserID != "u2" {
		t.Errorf("second u2 attempt alert = %+v, want alert for u2", a3)
	}
}

func TestRepeatedAttemptsDetector_ThresholdOne(t *testing.T) {
	d := NewRepeatedAttemptsDetector(RepeatedAttemptsConfig{Enabled: true, Threshold: 1, Window: time.Hour})
	ctx := context.Background()

	alert, _ := d.Check(ctx, record("u1", actions.ScreenshotAttempt, baseTime))
	if alert == nil || alert.Severity != SeverityWarning {
		t.Fatalf("alert = %+v, want warning", alert)
	}
}

func TestRepeatedAttemptsDetector_SkipsAnonymous(t *testing.T) {
	d := NewRepeatedAttemptsDetector(RepeatedAttemptsConfig{Enabled: true, Threshold: 1, Window: time.Hour})

	alert, err := d.Check(context.Background(), record("", actions.ScreenshotAttempt, baseTime))
	if err != nil || alert != nil {
		t.Errorf("Check() = %v, %v; want nil, nil", alert, err)
	}
	if alert, _ := d.Check(context.Background(), nil); alert != nil {
		t.Error("nil record should not fire")
	}
}

func TestMultiVectorDetector(t *testing.T) {
	d := NewMultiVectorDetector(MultiVectorConfig{Enabled: true, MinDistinct: 3, Window: 10 * time.Minute})
	ctx := context.Background()

	steps := []struct {
		action actions.Action
		offset time.Duration
		fires  bool
	}{
		{actions.ScreenshotAttempt, 0, false},
		{actions.ScreenshotAttempt, time.Minute, false},
		{actions.DevToolsOpened, 2 * time.Minute, false},
		{actions.RecordingDetected, 3 * time.Minute, true},
		{actions.ContextMenu, 4 * time.Minute, false},
	}

	for _, s := range steps {
		alert, err := d.Check(ctx, record("u1", s.action, baseTime.Add(s.offset)))
		if err != nil {
			t.Fatalf("Check() error = %v", err)
		}
		if (alert != nil) != s.fires {
			t.Errorf("Check(%s @%v) fired = %v, want %v", s.action, s.offset, alert != nil, s.fires)
		}
		if alert != nil {
			got, _ := alert.Metadata["actions"].([]string)
			want := []string{"devtools_opened", "recording_detected", "screenshot_attempt"}
			if len(got) != len(want) {
				t.Fatalf("actions = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("actions[%d] = %q, want %q", i, got[i], want[i])
				}
			}
			if alert.Severity != SeverityCritical {
				t.Errorf("Severity = %q, want critical", alert.Severity)
			}
		}
	}
}

func TestMultiVectorDetector_SpreadOutDoesNotFire(t *testing.T) {
	d := NewMultiVectorDetector(MultiVectorConfig{Enabled: true, MinDistinct: 3, Window: 10 * time.Minute})
	ctx := context.Background()

	seq := []actions.Action{actions.ScreenshotAttempt, actions.DevToolsOpened, actions.RecordingDetected}
	for i, a := range seq {
		alert, _ := d.Check(ctx, record("u1", a, baseTime.Add(time.Duration(i)*15*time.Minute)))
		if alert != nil {
			t.Errorf("Check(%s) fired, want no alert across windows", a)
		}
	}
}

func TestDetector_SetEnabled(t *testing.T) {
	detectors := []Detector{
		NewRepeatedAttemptsDetector(DefaultConfig().RepeatedAttempts),
		NewMultiVectorDetector(DefaultConfig().MultiVector),
	}
	for _, d := range detectors {
		if !d.Enabled() {
			t.Errorf("%s: Enabled() = false, want true", d.Type())
		}
		d.SetEnabled(false)
		if d.Enabled() {
			t.Errorf("%s: Enabled() = true after SetEnabled(false)", d.Type())
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero threshold", func(c *Config) { c.RepeatedAttempts.Threshold = 0 }, true},
		{"zero threshold disabled", func(c *Config) {
			c.RepeatedAttempts.Threshold = 0
			c.RepeatedAttempts.Enabled = false
		}, false},
		{"min distinct one", func(c *Config) { c.MultiVector.MinDistinct = 1 }, true},
		{"negative window", func(c *Config) { c.MultiVector.Window = -time.Second }, true},
		{"zero capacity", func(c *Config) { c.AlertCapacity = 0 }, true},
		{"webhook without rate", func(c *Config) {
			c.Webhook.URL = "https://hooks.example.com/x"
			c.Webhook.RatePerMinute = 0
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
