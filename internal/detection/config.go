// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package detection

import (
	"fmt"
	"time"
)

// Config configures the detection engine and its rules.
type Config struct {
	// Enabled controls whether the engine processes records.
	Enabled bool `koanf:"enabled" json:"enabled"`

	RepeatedAttempts RepeatedAttemptsConfig `koanf:"repeated_attempts" json:"repeatedAttempts"`
	MultiVector      MultiVectorConfig      `koanf:"multi_vector" json:"multiVector"`

	// AlertCapacity bounds the in-memory alert store.
	AlertCapacity int `koanf:"alert_capacity" json:"alertCapacity"`

	Webhook WebhookConfig `koanf:"webhook" json:"webhook"`
}

// RepeatedAttemptsConfig configures RepeatedAttemptsDetector.
type RepeatedAttemptsConfig struct {
	Enabled   bool          `koanf:"enabled" json:"enabled"`
	Threshold int           `koanf:"threshold" json:"threshold"`
	Window    time.Duration `koanf:"window" json:"window"`
}

// MultiVectorConfig configures MultiVectorDetector.
type MultiVectorConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled"`

	// MinDistinct is the number of distinct actions that raises an alert.
	MinDistinct int           `koanf:"min_distinct" json:"minDistinct"`
	Window      time.Duration `koanf:"window" json:"window"`
}

// WebhookConfig configures WebhookNotifier. An empty URL disables it.
type WebhookConfig struct {
	URL     string            `koanf:"url" json:"url"`
	Headers map[string]string `koanf:"headers" json:"headers,omitempty"`

	// RatePerMinute caps deliveries; bursts up to Burst are allowed.
	RatePerMinute int           `koanf:"rate_per_minute" json:"ratePerMinute"`
	Burst         int           `koanf:"burst" json:"burst"`
	Timeout       time.Duration `koanf:"timeout" json:"timeout"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		RepeatedAttempts: RepeatedAttemptsConfig{
			Enabled:   true,
			Threshold: 5,
			Window:    time.Hour,
		},
		MultiVector: MultiVectorConfig{
			Enabled:     true,
			MinDistinct: 3,
			Window:      10 * time.Minute,
		},
		AlertCapacity: 1000,
		Webhook: WebhookConfig{
			RatePerMinute: 30,
			Burst:         5,
			Timeout:       10 * time.Second,
		},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.RepeatedAttempts.Enabled {
		if c.RepeatedAttempts.Threshold < 1 {
			return fmt.Errorf("repeated_attempts.threshold must be positive, got %d", c.RepeatedAttempts.Threshold)
		}
		if c.RepeatedAttempts.Window <= 0 {
			return fmt.Errorf("repeated_attempts.window must be positive, got %v", c.RepeatedAttempts.Window)
		}
	}
	if c.MultiVector.Enabled {
		if c.MultiVector.MinDistinct < 2 {
			return fmt.Errorf("multi_vector.min_distinct must be at least 2, got %d", c.MultiVector.MinDistinct)
		}
		if c.MultiVector.Window <= 0 {
			return fmt.Errorf("multi_vector.window must be positive, got %v", c.MultiVector.Window)
		}
	}
	if c.AlertCapacity < 1 {
		return fmt.Errorf("alert_capacity must be positive, got %d", c.AlertCapacity)
	}
	if c.Webhook.URL != "" && c.Webhook.RatePerMinute < 1 {
		return fmt.Errorf("webhook.rate_per_minute must be positive, got %d", c.Webhook.RatePerMinute)
	}
	return nil
}
