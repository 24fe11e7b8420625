// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/lectern/internal/detection"
	"github.com/tomtom215/lectern/internal/events"
	"github.com/tomtom215/lectern/internal/protect"
)

// DefaultConfigPaths lists the config files searched in order. The first
// one found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/lectern/config.yaml",
	"/etc/lectern/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			TokenCookie:          "token",
			CORSOrigins:          []string{"*"},
			TrustedProxies:       []string{},
			PolicyReloadInterval: 30 * time.Second,
			RateLimitReqs:        100,
			RateLimitWindow:      time.Minute,
			LogRateLimitReqs:     30,
		},
		Storage: StorageConfig{
			Backend:           StorageBadger,
			Path:              "/data/seclog",
			MemoryMaxRecords:  100000,
			DuckDBMaxMemory:   "512MB",
			RetentionInterval: 24 * time.Hour,
		},
		Events:     events.DefaultConfig(),
		Detection:  detection.DefaultConfig(),
		Protection: protect.DefaultConfig(),
	}
}

// LoadWithKoanf loads configuration in three layers, each overriding the
// previous one:
//  1. built-in defaults
//  2. an optional YAML file
//  3. environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set via env.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"security.trusted_proxies",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Security
	"jwt_secret":              "security.jwt_secret",
	"jwt_issuer":              "security.jwt_issuer",
	"token_cookie":            "security.token_cookie",
	"cors_origins":            "security.cors_origins",
	"trusted_proxies":         "security.trusted_proxies",
	"authz_policy_path":       "security.policy_path",
	"authz_reload_interval":   "security.policy_reload_interval",
	"rate_limit_requests":     "security.rate_limit_reqs",
	"rate_limit_window":       "security.rate_limit_window",
	"log_rate_limit_requests": "security.log_rate_limit_reqs",
	"disable_rate_limit":      "security.rate_limit_disabled",

	// Storage
	"seclog_backend":            "storage.backend",
	"seclog_path":               "storage.path",
	"seclog_memory_max_records": "storage.memory_max_records",
	"seclog_sync_writes":        "storage.sync_writes",
	"duckdb_threads":            "storage.duckdb_threads",
	"duckdb_max_memory":         "storage.duckdb_max_memory",
	"seclog_retention":          "storage.retention",
	"seclog_retention_interval": "storage.retention_interval",

	// Events
	"events_backend":     "events.backend",
	"events_buffer_size": "events.buffer_size",
	"nats_url":           "events.nats_url",
	"nats_queue_group":   "events.queue_group",
	"nats_jetstream":     "events.jetstream",
	"nats_durable_name":  "events.durable_name",
	"nats_stream_name":   "events.stream_name",
	"nats_embedded":      "events.embedded.enabled",
	"nats_store_dir":     "events.embedded.store_dir",

	// Detection
	"detection_enabled":              "detection.enabled",
	"detection_repeated_threshold":   "detection.repeated_attempts.threshold",
	"detection_repeated_window":      "detection.repeated_attempts.window",
	"detection_multi_vector_enabled": "detection.multi_vector.enabled",
	"detection_multi_vector_min":     "detection.multi_vector.min_distinct",
	"detection_multi_vector_window":  "detection.multi_vector.window",
	"detection_alert_capacity":       "detection.alert_capacity",
	"alert_webhook_url":              "detection.webhook.url",
	"alert_webhook_rate_per_minute":  "detection.webhook.rate_per_minute",

	// Protection
	"protect_violation_cooldown":   "protection.violation_cooldown",
	"protect_blur_cooldown":        "protection.blur_cooldown",
	"protect_escalation_threshold": "protection.escalation_threshold",
	"protect_escalation_window":    "protection.escalation_window",
}

// envTransformFunc maps an environment variable to its koanf path. Empty
// results are skipped by the provider.
//
// Examples:
//   - JWT_SECRET -> security.jwt_secret
//   - SECLOG_BACKEND -> storage.backend
//   - NATS_URL -> events.nats_url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
