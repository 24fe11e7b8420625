// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/tomtom215/lectern/internal/auth"
	"github.com/tomtom215/lectern/internal/events"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the configuration and the embedded component configs.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateSecurity,
		c.validateStorage,
		c.validateEvents,
		c.validateDetection,
		c.validateProtection,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Environment {
	case "development", "production":
	default:
		return invalid("server.environment must be development or production, got %q", c.Server.Environment)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return invalid("server.shutdown_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return invalid("logging.level %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return invalid("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if s.JWTSecret == "" {
		return invalid("security.jwt_secret is required (set JWT_SECRET)")
	}
	if len(s.JWTSecret) < auth.MinSecretLength {
		return invalid("security.jwt_secret must be at least %d characters", auth.MinSecretLength)
	}
	if s.TokenCookie == "" {
		return invalid("security.token_cookie must not be empty")
	}
	if c.Server.IsProduction() {
		for _, origin := range s.CORSOrigins {
			if origin == "*" {
				return invalid("security.cors_origins must not contain * in production")
			}
		}
	}
	for _, proxy := range s.TrustedProxies {
		if err := validateProxy(proxy); err != nil {
			return invalid("security.trusted_proxies: %v", err)
		}
	}
	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 || s.LogRateLimitReqs < 1 {
			return invalid("security rate limits must be positive (rate_limit_reqs=%d, log_rate_limit_reqs=%d)",
				s.RateLimitReqs, s.LogRateLimitReqs)
		}
		if s.RateLimitWindow <= 0 {
			return invalid("security.rate_limit_window must be positive")
		}
	}
	return nil
}

// validateProxy accepts a single IP or a CIDR range.
func validateProxy(proxy string) error {
	if strings.Contains(proxy, "/") {
		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("invalid CIDR %q: %w", proxy, err)
		}
		return nil
	}
	if net.ParseIP(proxy) == nil {
		return fmt.Errorf("invalid IP %q", proxy)
	}
	return nil
}

func (c *Config) validateStorage() error {
	st := c.Storage
	switch st.Backend {
	case StorageMemory:
		if st.MemoryMaxRecords < 0 {
			return invalid("storage.memory_max_records must be >= 0")
		}
		// The memory store evicts old records and loses everything on restart.
		if c.Server.IsProduction() {
			return invalid("storage.backend memory is not an audit trail and is not allowed in production")
		}
	case StorageBadger, StorageDuckDB:
		if st.Path == "" {
			return invalid("storage.path is required for the %s backend", st.Backend)
		}
	default:
		return invalid("storage.backend must be memory, badger or duckdb, got %q", st.Backend)
	}
	if st.Retention < 0 {
		return invalid("storage.retention must be >= 0")
	}
	if st.Retention > 0 && st.RetentionInterval <= 0 {
		return invalid("storage.retention_interval must be positive when retention is set")
	}
	return nil
}

func (c *Config) validateEvents() error {
	if err := c.Events.Validate(); err != nil {
		return invalid("%v", err)
	}
	if c.Events.Backend == events.BackendNATS && !c.Events.Embedded.Enabled {
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return invalid("events.nats_url: %v", err)
		}
	}
	return nil
}

func (c *Config) validateDetection() error {
	if err := c.Detection.Validate(); err != nil {
		return invalid("detection: %v", err)
	}
	if c.Detection.Webhook.URL != "" {
		if err := validateHTTPURL(c.Detection.Webhook.URL, "detection.webhook.url"); err != nil {
			return invalid("%v", err)
		}
	}
	return nil
}

func (c *Config) validateProtection() error {
	if err := c.Protection.Validate(); err != nil {
		return invalid("protection: %v", err)
	}
	return nil
}
