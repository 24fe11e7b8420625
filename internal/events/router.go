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

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/metrics"
	"github.com/tomtom215/lectern/internal/seclog"
)

const dispatchHandlerName = "security-log-dispatch"

// Consumer processes records delivered by the router.
type Consumer interface {
	Name() string
	Consume(ctx context.Context, rec *seclog.Record) error
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc struct {
	ConsumerName string
	Fn           func(ctx context.Context, rec *seclog.Record) error
}

func (c ConsumerFunc) Name() string { return c.ConsumerName }

func (c ConsumerFunc) Consume(ctx context.Context, rec *seclog.Record) error {
	return c.Fn(ctx, rec)
}

// Router runs the Watermill router that feeds consumers. It implements
// suture.Service; each Serve call builds a fresh Watermill router so the
// supervisor can restart it.
type Router struct {
	cfg        Config
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter

	mu        sync.RWMutex
	consumers []Consumer

	ready     chan struct{}
	readyOnce sync.Once
}

// NewRouter creates a router reading TopicSecurityLog from subscriber.
func NewRouter(cfg Config, subscriber message.Subscriber, logger watermill.LoggerAdapter) *Router {
	if logger == nil {
		logger = watermill.NewSlogLogger(logging.NewSlogLogger())
	}
	return &Router{
		cfg:        cfg,
		subscriber: subscriber,
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// AddConsumer registers c. Consumers added after Serve starts receive
// subsequent messages.
func (r *Router) AddConsumer(c Consumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.consumers = append(r.consumers, c)
}

// Ready is closed once the first router run is subscribed.
func (r *Router) Ready() <-chan struct{} {
	return r.ready
}

// Serve runs the router until ctx is cancelled.
func (r *Router) Serve(ctx context.Context) error {
	wm, err := message.NewRouter(message.RouterConfig{CloseTimeout: r.cfg.CloseTimeout}, r.logger)
	if err != nil {
		return fmt.Errorf("create watermill router: %w", err)
	}

	// Recoverer converts handler panics into errors; Retry backs off on
	// transient consumer failures.
	wm.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      r.cfg.RetryMaxRetries,
		InitialInterval: r.cfg.RetryInitialInterval,
		MaxInterval:     r.cfg.RetryMaxInterval,
		Multiplier:      2.0,
		Logger:          r.logger,
	}
	wm.AddMiddleware(retry.Middleware)

	wm.AddConsumerHandler(dispatchHandlerName, TopicSecurityLog, keepOpen{r.subscriber}, r.handle)

	go func() {
		select {
		case <-wm.Running():
			r.readyOnce.Do(func() { close(r.ready) })
		case <-ctx.Done():
		}
	}()

	logging.Info().Str("topic", TopicSecurityLog).Msg("Event router starting")
	err = wm.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("event router: %w", err)
	}
	return errors.New("event router stopped unexpectedly")
}

// handle decodes one message and dispatches it to every consumer.
func (r *Router) handle(msg *message.Message) error {
	rec, err := DecodeRecord(msg)
	if err != nil {
		// Retrying cannot fix a malformed payload.
		logging.Warn().Err(err).Str("uuid", msg.UUID).Msg("Dropping undecodable security event")
		return nil
	}

	r.mu.RLock()
	consumers := make([]Consumer, len(r.consumers))
	copy(consumers, r.consumers)
	r.mu.RUnlock()

	var errs []error
	for _, c := range consumers {
		if err := c.Consume(msg.Context(), rec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name(), err))
			continue
		}
		metrics.RecordConsume(c.Name())
	}
	return errors.Join(errs...)
}

// String implements fmt.Stringer for supervisor logs.
func (r *Router) String() string {
	return "event-router"
}

// keepOpen stops the Watermill router from closing the shared subscriber on
// shutdown; the Bus owns it.
type keepOpen struct {
	message.Subscriber
}

func (keepOpen) Close() error { return nil }
