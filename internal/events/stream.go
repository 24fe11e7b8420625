// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// streamSetupTimeout bounds the connect and create-or-update round trips.
const streamSetupTimeout = 10 * time.Second

// streamManager is the subset of jetstream.JetStream used by ensureStream.
type streamManager interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// streamConfig describes the stream that carries TopicSecurityLog.
func streamConfig(cfg Config) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{TopicSecurityLog},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    cfg.StreamMaxAge,
		Storage:   jetstream.FileStorage,
		Discard:   jetstream.DiscardOld,
		Replicas:  1,
	}
}

// ensureStream creates the stream or updates it to the current settings.
// Stream names cannot contain the dots in the topic, so the stream is
// provisioned here and subscribers bind to it by name.
func ensureStream(ctx context.Context, js streamManager, cfg Config) (jetstream.Stream, error) {
	sc := streamConfig(cfg)

	_, err := js.Stream(ctx, sc.Name)
	switch {
	case err == nil:
		stream, err := js.UpdateStream(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("update stream %s: %w", sc.Name, err)
		}
		return stream, nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		stream, err := js.CreateStream(ctx, sc)
		if err != nil {
			return nil, fmt.Errorf("create stream %s: %w", sc.Name, err)
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("check stream %s: %w", sc.Name, err)
	}
}

// provisionStream connects once to url and ensures the stream exists.
func provisionStream(url string, cfg Config) error {
	nc, err := natsgo.Connect(url, natsgo.Name("lectern-provisioner"), natsgo.Timeout(streamSetupTimeout))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), streamSetupTimeout)
	defer cancel()
	_, err = ensureStream(ctx, js, cfg)
	return err
}
