// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

/*
Package services adapts components whose lifecycle is not already a
suture.Service.

The websocket hub, the event router and the retention loop implement
Serve(ctx) themselves and are added to the tree directly. The HTTP server
blocks in ListenAndServe and is stopped with Shutdown, so it needs
HTTPServerService:

	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router.Setup()}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))
*/
package services
