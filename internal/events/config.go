// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package events

import (
	"fmt"
	"strings"
	"time"
)

// TopicSecurityLog is the topic every saved record is published on.
const TopicSecurityLog = "security.log"

// Backend names.
const (
	BackendMemory = "memory"
	BackendNATS   = "nats"
)

// Config configures the bus and its router.
type Config struct {
	Backend string `koanf:"backend" json:"backend" validate:"oneof=memory nats"`

	// BufferSize is the gochannel output buffer per subscriber.
	BufferSize int64 `koanf:"buffer_size" json:"buffer_size"`

	// NATS settings, used when Backend is nats.
	NATSURL       string        `koanf:"nats_url" json:"nats_url"`
	QueueGroup    string        `koanf:"queue_group" json:"queue_group"`
	JetStream     bool          `koanf:"jetstream" json:"jetstream"`
	DurableName   string        `koanf:"durable_name" json:"durable_name"`
	MaxReconnects int           `koanf:"max_reconnects" json:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait" json:"reconnect_wait"`

	// JetStream stream bound by the subscriber.
	StreamName   string        `koanf:"stream_name" json:"stream_name"`
	StreamMaxAge time.Duration `koanf:"stream_max_age" json:"stream_max_age"`

	// Embedded starts an in-process NATS server and overrides NATSURL.
	Embedded EmbeddedConfig `koanf:"embedded" json:"embedded"`

	// Router settings.
	CloseTimeout         time.Duration `koanf:"close_timeout" json:"close_timeout"`
	RetryMaxRetries      int           `koanf:"retry_max_retries" json:"retry_max_retries"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval" json:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval" json:"retry_max_interval"`

	// Publish circuit breaker.
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold" json:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout" json:"breaker_timeout"`
}

// DefaultConfig returns defaults for a single-node deployment.
func DefaultConfig() Config {
	return Config{
		Backend:                 BackendMemory,
		BufferSize:              256,
		NATSURL:                 "nats://127.0.0.1:4222",
		DurableName:             "lectern",
		MaxReconnects:           -1,
		ReconnectWait:           2 * time.Second,
		StreamName:              "SECURITY_LOG",
		StreamMaxAge:            7 * 24 * time.Hour,
		Embedded: EmbeddedConfig{
			Host:      "127.0.0.1",
			Port:      4222,
			StoreDir:  "/data/nats",
			MaxMemory: 256 << 20,
			MaxStore:  1 << 30,
		},
		CloseTimeout:            10 * time.Second,
		RetryMaxRetries:         3,
		RetryInitialInterval:    100 * time.Millisecond,
		RetryMaxInterval:        5 * time.Second,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendNATS:
		if c.NATSURL == "" && !c.Embedded.Enabled {
			return fmt.Errorf("events.nats_url is required for the nats backend")
		}
		if c.JetStream {
			if c.StreamName == "" || strings.ContainsAny(c.StreamName, ". *>/\\") {
				return fmt.Errorf("events.stream_name %q is not a valid JetStream stream name", c.StreamName)
			}
		}
		if c.Embedded.Enabled && c.Embedded.StoreDir == "" {
			return fmt.Errorf("events.embedded.store_dir is required for the embedded server")
		}
	default:
		return fmt.Errorf("events.backend must be %q or %q, got %q", BackendMemory, BackendNATS, c.Backend)
	}
	if c.Embedded.Enabled && c.Backend != BackendNATS {
		return fmt.Errorf("events.embedded requires the nats backend")
	}
	if c.RetryMaxRetries < 0 {
		return fmt.Errorf("events.retry_max_retries must be >= 0")
	}
	return nil
}
