// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/seclog"
)

// Message metadata keys.
const (
	MetadataAction = "action"
	MetadataUserID = "user_id"
)

// ErrBusClosed is returned by PublishRecord after Close.
var ErrBusClosed = errors.New("event bus is closed")

// Bus publishes security log records and hands out the matching subscriber.
// It implements seclog.Publisher.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[struct{}]
	backend    string
	logger     watermill.LoggerAdapter
	embedded   *EmbeddedServer

	// shared is set when one gochannel serves both sides.
	shared bool

	mu     sync.RWMutex
	closed bool
}

// NewBus creates the bus for cfg.Backend.
func NewBus(cfg Config, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Bus{backend: cfg.Backend, logger: logger}
	switch cfg.Backend {
	case BackendMemory:
		gc := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: cfg.BufferSize,
		}, logger)
		b.publisher, b.subscriber, b.shared = gc, gc, true
	case BackendNATS:
		if cfg.Embedded.Enabled {
			srv, err := NewEmbeddedServer(cfg.Embedded)
			if err != nil {
				return nil, err
			}
			b.embedded = srv
			cfg.NATSURL = srv.ClientURL()
			logging.Info().Str("url", cfg.NATSURL).Msg("Embedded NATS server started")
		}
		pub, sub, err := newNATS(cfg, logger)
		if err != nil {
			b.shutdownEmbedded()
			return nil, err
		}
		b.publisher, b.subscriber = pub, sub
	}

	b.breaker = newBreaker("events", cfg.BreakerFailureThreshold, cfg.BreakerTimeout)
	return b, nil
}

// newNATS creates the watermill-nats publisher and subscriber.
func newNATS(cfg Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	natsOpts := []natsgo.Option{
		natsgo.Name("lectern"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	jsCfg := wmNats.JetStreamConfig{
		Disabled:      !cfg.JetStream,
		DurablePrefix: cfg.DurableName,
	}
	if cfg.JetStream {
		if err := provisionStream(cfg.NATSURL, cfg); err != nil {
			return nil, nil, err
		}
		jsCfg.SubscribeOptions = []natsgo.SubOpt{
			natsgo.BindStream(cfg.StreamName),
			natsgo.DeliverNew(),
		}
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.NATSURL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jsCfg,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create nats publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.NATSURL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream:        jsCfg,
	}, logger)
	if err != nil {
		_ = pub.Close()
		return nil, nil, fmt.Errorf("create nats subscriber: %w", err)
	}
	return pub, sub, nil
}

// PublishRecord publishes rec on TopicSecurityLog.
func (b *Bus) PublishRecord(ctx context.Context, rec *seclog.Record) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrBusClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	msg := message.NewMessage(rec.ID, data)
	msg.Metadata.Set(MetadataAction, string(rec.Action))
	msg.Metadata.Set(MetadataUserID, rec.UserID)
	if id := logging.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set("request_id", id)
	}

	_, err = b.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, b.publisher.Publish(TopicSecurityLog, msg)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordPublish("circuit_open")
	case err != nil:
		metrics.RecordPublish("error")
	default:
		metrics.RecordPublish("success")
	}
	if err != nil {
		return fmt.Errorf("publish %s: %w", TopicSecurityLog, err)
	}
	return nil
}

// DecodeRecord parses a message produced by PublishRecord.
func DecodeRecord(msg *message.Message) (*seclog.Record, error) {
	var rec seclog.Record
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", msg.UUID, err)
	}
	return &rec, nil
}

// Subscriber returns the subscriber side for the router.
func (b *Bus) Subscriber() message.Subscriber { return b.subscriber }

// Backend returns the configured backend name.
func (b *Bus) Backend() string { return b.backend }

// BreakerState reports the publish breaker state.
func (b *Bus) BreakerState() gobreaker.State { return b.breaker.State() }

// Close closes the publisher and subscriber.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	if b.shared {
		return b.publisher.Close()
	}
	err := errors.Join(b.publisher.Close(), b.subscriber.Close())
	b.shutdownEmbedded()
	return err
}

// embeddedShutdownTimeout bounds the wait for the in-process server.
const embeddedShutdownTimeout = 10 * time.Second

func (b *Bus) shutdownEmbedded() {
	if b.embedded == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), embeddedShutdownTimeout)
	defer cancel()
	if err := b.embedded.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Msg("Embedded NATS server did not stop in time")
	}
	b.embedded = nil
}
