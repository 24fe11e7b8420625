// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

// Package events carries saved security log records to asynchronous
// consumers (alert detection and the admin live feed) over Watermill.
//
// Two backends are supported:
//
//   - memory: an in-process gochannel pub/sub, the default
//   - nats: watermill-nats against an external NATS server, for fan-out
//     across several server instances, or against an EmbeddedServer
//     started in-process when Config.Embedded is enabled
//
// With JetStream on, NewBus provisions the stream named Config.StreamName
// for TopicSecurityLog and the subscriber binds to it, since stream names
// cannot contain the dots of the topic.
//
// Publishing sits behind a circuit breaker so a broken broker costs one fast
// failure per request instead of a timeout. The security log write itself
// never depends on the bus.
//
// All records flow on one topic, TopicSecurityLog. A single router handler
// dispatches each message to every registered Consumer, which keeps NATS
// queue-group semantics simple: one subscription per instance.
package events
