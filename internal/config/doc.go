// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package config loads the server configuration.

Values are layered with koanf: built-in defaults, then an optional YAML
file, then environment variables. The file is taken from CONFIG_PATH or the
first of DefaultConfigPaths that exists.

Example config.yaml:

	server:
	  port: 8080
	  environment: production
	security:
	  jwt_secret: "change-me-to-at-least-32-characters"
	  cors_origins: ["https://learn.example.com"]
	storage:
	  backend: duckdb
	  path: /data/seclog.duckdb
	  retention: 2160h
	detection:
	  repeated_attempts:
	    threshold: 5
	    window: 1h
	  webhook:
	    url: https://hooks.example.com/lectern

Environment variables use flat names (JWT_SECRET, SECLOG_BACKEND,
NATS_URL, ALERT_WEBHOOK_URL); see envMappings for the full list. Slice
values such as CORS_ORIGINS are comma-separated.

Validate wraps every failure in ErrInvalidConfig.
*/
package config
