// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package main is the entry point for the Lectern security audit server.

The server receives protection violation reports from learners' browsers,
stores them in the security log, and exposes the log, aggregates and
detection alerts to administrators.

# Application Architecture

Long-running components run under Suture v4 supervision:

	RootSupervisor ("lectern")
	├── DataSupervisor ("data-layer")
	│   └── Retention (when SECLOG_RETENTION is set)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (admin live feed)
	│   └── Event Router (detection engine, live feed)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, YAML file and environment
 2. Logging: zerolog with JSON or console output
 3. Security log store: memory, BadgerDB or DuckDB
 4. Event bus: Watermill over gochannel or NATS, optionally with an
    embedded NATS JetStream server
 5. Detection engine and alert store (optional)
 6. Authentication (JWT) and authorization (Casbin)
 7. Supervisor tree and HTTP server

# Configuration

	HTTP_PORT=8080
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console
	JWT_SECRET=<32+ chars>       # required, shared with the platform
	SECLOG_BACKEND=badger        # memory, badger or duckdb
	SECLOG_PATH=/data/seclog
	SECLOG_RETENTION=2160h       # 0 keeps records forever
	EVENTS_BACKEND=memory        # memory or nats
	NATS_URL=nats://nats:4222
	NATS_EMBEDDED=false          # in-process JetStream server, overrides NATS_URL
	NATS_STORE_DIR=/data/nats
	DETECTION_ENABLED=true
	ALERT_WEBHOOK_URL=https://hooks.example.com/lectern

CONFIG_PATH points at a YAML file with the same keys.

# Graceful Shutdown

SIGINT or SIGTERM cancels the root context. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT, the router and hub stop, pending webhook deliveries
finish, then the bus and store are closed.
*/
package main
