// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/lectern/internal/detection"
	"github.com/tomtom215/lectern/internal/events"
	"github.com/tomtom215/lectern/internal/protect"
)

// Storage backends for the security log.
const (
	StorageMemory = "memory"
	StorageBadger = "badger"
	StorageDuckDB = "duckdb"
)

// Config holds the server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Security   SecurityConfig   `koanf:"security"`
	Storage    StorageConfig    `koanf:"storage"`
	Events     events.Config    `koanf:"events"`
	Detection  detection.Config `koanf:"detection"`
	Protection protect.Config   `koanf:"protection"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is "development" or "production". Production enables
	// stricter checks in Validate.
	Environment string `koanf:"environment"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds authentication, authorization and HTTP hardening
// settings.
type SecurityConfig struct {
	// JWTSecret verifies the platform's HS256 session tokens.
	JWTSecret   string `koanf:"jwt_secret"`
	JWTIssuer   string `koanf:"jwt_issuer"`
	TokenCookie string `koanf:"token_cookie"`

	CORSOrigins    []string `koanf:"cors_origins"`
	TrustedProxies []string `koanf:"trusted_proxies"`

	// PolicyPath points at a casbin policy CSV. Empty uses the embedded one.
	PolicyPath           string        `koanf:"policy_path"`
	PolicyReloadInterval time.Duration `koanf:"policy_reload_interval"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// LogRateLimitReqs caps security log submissions per IP per window.
	LogRateLimitReqs  int  `koanf:"log_rate_limit_reqs"`
	RateLimitDisabled bool `koanf:"rate_limit_disabled"`
}

// StorageConfig selects and tunes the security log store.
type StorageConfig struct {
	Backend string `koanf:"backend"`

	// Path is the Badger directory or DuckDB file.
	Path string `koanf:"path"`

	// MemoryMaxRecords bounds the memory backend. 0 means unbounded.
	MemoryMaxRecords int  `koanf:"memory_max_records"`
	SyncWrites       bool `koanf:"sync_writes"`

	DuckDBThreads   int    `koanf:"duckdb_threads"`
	DuckDBMaxMemory string `koanf:"duckdb_max_memory"`

	// Retention removes records older than this. 0 keeps them forever.
	Retention         time.Duration `koanf:"retention"`
	RetentionInterval time.Duration `koanf:"retention_interval"`
}
