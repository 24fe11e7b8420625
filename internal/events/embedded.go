// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"

	"github.com/tomtom215/lectern/internal/logging"
)

// embeddedReadyTimeout bounds how long NewEmbeddedServer waits for the
// listener.
const embeddedReadyTimeout = 30 * time.Second

// EmbeddedConfig configures the in-process NATS server used by single-node
// deployments that want JetStream durability without running a broker.
type EmbeddedConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled"`
	Host    string `koanf:"host" json:"host"`
	// Port -1 picks a free port.
	Port      int    `koanf:"port" json:"port"`
	StoreDir  string `koanf:"store_dir" json:"store_dir"`
	MaxMemory int64  `koanf:"max_memory" json:"max_memory"`
	MaxStore  int64  `koanf:"max_store" json:"max_store"`
}

// EmbeddedServer wraps an in-process NATS server with JetStream enabled.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer starts the server and waits until it accepts clients.
func NewEmbeddedServer(cfg EmbeddedConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName:         "lectern-events",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		NoSigs:             true,
		MaxPayload:         1024 * 1024,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.SetLogger(natsLogger{}, false, false)

	go ns.Start()

	if !ns.ReadyForConnections(embeddedReadyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within %v", embeddedReadyTimeout)
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server, giving up on the wait when ctx ends first.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the server is accepting work.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// JetStreamEnabled reports whether JetStream started.
func (s *EmbeddedServer) JetStreamEnabled() bool {
	return s.server.JetStreamEnabled()
}

// natsLogger routes NATS server logs to zerolog.
type natsLogger struct{}

func (natsLogger) Noticef(format string, v ...any) {
	logging.Info().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Warnf(format string, v ...any) {
	logging.Warn().Str("component", "nats").Msgf(format, v...)
}

// Fatalf is logged at error level; the server shuts itself down afterwards.
func (natsLogger) Fatalf(format string, v ...any) {
	logging.Error().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Errorf(format string, v ...any) {
	logging.Error().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Debugf(format string, v ...any) {
	logging.Debug().Str("component", "nats").Msgf(format, v...)
}

func (natsLogger) Tracef(format string, v ...any) {
	logging.Debug().Str("component", "nats").Msgf(format, v...)
}
