// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package websocket

import (
	"context"

	"github.com/tomtom215/lectern/internal/seclog"
)

// Broadcaster is the part of Hub the live feed needs.
type Broadcaster interface {
	BroadcastJSON(messageType string, data any)
}

// LiveFeed forwards every security log record from the event bus to
// connected admin clients as a "security_event" message.
type LiveFeed struct {
	hub Broadcaster
}

// NewLiveFeed creates a live feed consumer for hub.
func NewLiveFeed(hub Broadcaster) *LiveFeed {
	return &LiveFeed{hub: hub}
}

// Name implements events.Consumer.
func (f *LiveFeed) Name() string {
	return "live-feed"
}

// Consume implements events.Consumer. Delivery is best effort.
func (f *LiveFeed) Consume(_ context.Context, rec *seclog.Record) error {
	f.hub.BroadcastJSON(MessageTypeSecurityEvent, rec)
	return nil
}
