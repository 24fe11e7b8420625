// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package websocket streams security activity to connected admin clients.

It uses gorilla/websocket with a hub-client architecture:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│ Client1  │ Client2 │ Client3 │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: reads from the connection and answers "ping" messages
  - writePump: writes queued messages and keepalive pings

Message Types:

  - security_event: a security log record as it was saved (sent by LiveFeed)
  - security_alert: an alert raised by the detection engine
  - ping / pong: application-level keepalive

Message Format:

	{
	  "type": "security_event",
	  "data": { "id": "...", "userId": "...", "action": "screenshot_attempt", ... }
	}

Backpressure:

The hub queue holds 256 messages and each client buffer holds 256. A full
hub queue drops the message; a full client buffer disconnects that client.
Both increment lectern_websocket_messages_dropped_total.

Lifecycle:

Hub implements suture.Service via Serve and is run in the messaging layer
of the supervisor tree. On shutdown every client channel is closed, which
makes writePump send a close frame.

The HTTP upgrade and admin authorization live in internal/api.
*/
package websocket
