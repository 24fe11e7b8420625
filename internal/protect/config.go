// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package protect

import (
	"fmt"
	"time"
)

// Config holds the tunable thresholds of the engine. The bands and durations
// are empirically chosen, so the server owns them (protection section of the
// server config) and pages fetch them from /api/v1/protection/config.
type Config struct {
	// Pointer gesture
	PointerThreshold int `koanf:"pointer_threshold" json:"pointerThreshold"`

	// Viewport shift band, open interval in CSS pixels
	ViewportMinDelta float64       `koanf:"viewport_min_delta" json:"viewportMinDelta"`
	ViewportMaxDelta float64       `koanf:"viewport_max_delta" json:"viewportMaxDelta"`
	ViewportSettle   time.Duration `koanf:"viewport_settle" json:"viewportSettle"`

	// Quick hide-then-show band, open interval
	SuspectHiddenMin time.Duration `koanf:"suspect_hidden_min" json:"suspectHiddenMin"`
	SuspectHiddenMax time.Duration `koanf:"suspect_hidden_max" json:"suspectHiddenMax"`

	// Lockout timing
	BlurDebounce      time.Duration `koanf:"blur_debounce" json:"blurDebounce"`
	BlurCooldown      time.Duration `koanf:"blur_cooldown" json:"blurCooldown"`
	ViolationCooldown time.Duration `koanf:"violation_cooldown" json:"violationCooldown"`
	FallbackCooldown  time.Duration `koanf:"fallback_cooldown" json:"fallbackCooldown"`

	// Devtools geometry heuristic
	DevToolsPollInterval time.Duration `koanf:"devtools_poll_interval" json:"devToolsPollInterval"`
	DevToolsThreshold    float64       `koanf:"devtools_threshold" json:"devToolsThreshold"`

	// Escalation
	EscalationThreshold int           `koanf:"escalation_threshold" json:"escalationThreshold"`
	EscalationWindow    time.Duration `koanf:"escalation_window" json:"escalationWindow"`

	// Presentation
	WatermarkInterval time.Duration `koanf:"watermark_interval" json:"watermarkInterval"`
	WatermarkCount    int           `koanf:"watermark_count" json:"watermarkCount"`
	ToastDuration     time.Duration `koanf:"toast_duration" json:"toastDuration"`
	ClipboardWarning  string        `koanf:"clipboard_warning" json:"clipboardWarning"`

	// Client sink
	QueueSize int `koanf:"queue_size" json:"queueSize"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		PointerThreshold:     3,
		ViewportMinDelta:     20,
		ViewportMaxDelta:     300,
		ViewportSettle:       2 * time.Second,
		SuspectHiddenMin:     50 * time.Millisecond,
		SuspectHiddenMax:     800 * time.Millisecond,
		BlurDebounce:         100 * time.Millisecond,
		BlurCooldown:         5 * time.Second,
		ViolationCooldown:    10 * time.Second,
		FallbackCooldown:     5 * time.Second,
		DevToolsPollInterval: 2 * time.Second,
		DevToolsThreshold:    160,
		EscalationThreshold:  5,
		EscalationWindow:     time.Hour,
		WatermarkInterval:    20 * time.Second,
		WatermarkCount:       6,
		ToastDuration:        3 * time.Second,
		ClipboardWarning:     "Screen capture of protected content is not permitted. This attempt has been logged.",
		QueueSize:            64,
	}
}

// Validate checks that the bands are well formed.
func (c Config) Validate() error {
	if c.PointerThreshold < 2 {
		return fmt.Errorf("pointer_threshold must be at least 2, got %d", c.PointerThreshold)
	}
	if c.ViewportMinDelta < 0 || c.ViewportMaxDelta <= c.ViewportMinDelta {
		return fmt.Errorf("viewport band (%v, %v) is empty", c.ViewportMinDelta, c.ViewportMaxDelta)
	}
	if c.SuspectHiddenMin < 0 || c.SuspectHiddenMax <= c.SuspectHiddenMin {
		return fmt.Errorf("hidden band (%v, %v) is empty", c.SuspectHiddenMin, c.SuspectHiddenMax)
	}
	if c.FallbackCooldown <= 0 {
		return fmt.Errorf("fallback_cooldown must be positive")
	}
	if c.DevToolsPollInterval <= 0 {
		return fmt.Errorf("devtools_poll_interval must be positive")
	}
	if c.EscalationThreshold < 1 {
		return fmt.Errorf("escalation_threshold must be at least 1, got %d", c.EscalationThreshold)
	}
	return nil
}

// withDefaults fills zero values so a partially populated Config still works.
// The lockout cooldowns are filled only when unset; a negative cooldown is
// kept so cooldownSeconds applies FallbackCooldown to it.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PointerThreshold <= 0 {
		c.PointerThreshold = d.PointerThreshold
	}
	if c.ViewportMaxDelta <= 0 {
		c.ViewportMinDelta, c.ViewportMaxDelta = d.ViewportMinDelta, d.ViewportMaxDelta
	}
	if c.ViewportSettle <= 0 {
		c.ViewportSettle = d.ViewportSettle
	}
	if c.SuspectHiddenMax <= 0 {
		c.SuspectHiddenMin, c.SuspectHiddenMax = d.SuspectHiddenMin, d.SuspectHiddenMax
	}
	if c.BlurDebounce <= 0 {
		c.BlurDebounce = d.BlurDebounce
	}
	if c.BlurCooldown == 0 {
		c.BlurCooldown = d.BlurCooldown
	}
	if c.ViolationCooldown == 0 {
		c.ViolationCooldown = d.ViolationCooldown
	}
	if c.FallbackCooldown <= 0 {
		c.FallbackCooldown = d.FallbackCooldown
	}
	if c.DevToolsPollInterval <= 0 {
		c.DevToolsPollInterval = d.DevToolsPollInterval
	}
	if c.DevToolsThreshold <= 0 {
		c.DevToolsThreshold = d.DevToolsThreshold
	}
	if c.EscalationThreshold <= 0 {
		c.EscalationThreshold = d.EscalationThreshold
	}
	if c.EscalationWindow <= 0 {
		c.EscalationWindow = d.EscalationWindow
	}
	if c.WatermarkInterval <= 0 {
		c.WatermarkInterval = d.WatermarkInterval
	}
	if c.WatermarkCount <= 0 {
		c.WatermarkCount = d.WatermarkCount
	}
	if c.ToastDuration <= 0 {
		c.ToastDuration = d.ToastDuration
	}
	if c.ClipboardWarning == "" {
		c.ClipboardWarning = d.ClipboardWarning
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	return c
}

// cooldownSeconds converts a lockout duration to whole countdown seconds,
// falling back when the configured value is unusable.
func (c Config) cooldownSeconds(d time.Duration) int {
	if d <= 0 {
		d = c.FallbackCooldown
	}
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
