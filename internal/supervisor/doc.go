// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package supervisor runs the long-lived server components under a
thejerf/suture/v4 tree.

The tree has three layers, each its own child supervisor so that repeated
failures in one layer back off without stopping the others:

	lectern
	├── data-layer       seclog retention
	├── messaging-layer  websocket hub, event router
	└── api-layer        HTTP server

Supervisor events (restarts, backoff, stop timeouts) are logged through
sutureslog with the zerolog-backed slog handler from internal/logging.

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddMessagingService(hub)
	tree.AddAPIService(httpService)
	err = tree.Serve(ctx)
*/
package supervisor
