// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/lectern/internal/auth"
	"github.com/tomtom215/lectern/internal/authz"
	"github.com/tomtom215/lectern/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler *Handler
	chiMW   *ChiMiddleware
	authn   *auth.Middleware
	authz   *authz.Middleware
}

// NewRouter creates a Router. All arguments are required.
func NewRouter(handler *Handler, chiMW *ChiMiddleware, authn *auth.Middleware, authzMW *authz.Middleware) *Router {
	return &Router{
		handler: handler,
		chiMW:   chiMW,
		authn:   authn,
		authz:   authzMW,
	}
}

// Setup builds the route tree:
//
//	GET  /health
//	GET  /metrics
//	POST /security/log                        authenticated
//	GET  /security/log                        admin
//	POST /api/v1/security/log                 authenticated
//	GET  /api/v1/protection/config            authenticated
//	GET  /api/v1/security/log                 admin
//	GET  /api/v1/security/log/export          admin
//	GET  /api/v1/security/stats               admin
//	GET  /api/v1/security/summary             admin
//	GET  /api/v1/security/alerts              admin
//	POST /api/v1/security/alerts/{id}/ack     admin
//	GET  /api/v1/security/ws                  admin
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(rt.chiMW.CORS())

	h := rt.handler

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Protected pages predating the versioned API use the unversioned path.
	r.With(rt.chiMW.RateLimitLog(), rt.authn.Authenticate, rt.authz.AuthorizeRequest).
		Post("/security/log", h.LogViolation)
	r.With(rt.chiMW.RateLimit(), rt.authn.Authenticate, rt.authz.AuthorizeRequest).
		Get("/security/log", h.ListLogs)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.chiMW.RateLimit())
		r.Use(rt.authn.Authenticate)
		r.Use(rt.authz.AuthorizeRequest)

		r.Get("/protection/config", h.ProtectionConfig)

		r.Route("/security", func(r chi.Router) {
			r.With(rt.chiMW.RateLimitLog()).Post("/log", h.LogViolation)
			r.Get("/log", h.ListLogs)
			r.With(middleware.Compression).Get("/log/export", h.Export)
			r.Get("/stats", h.Stats)
			r.Get("/summary", h.Summary)
			r.Get("/alerts", h.ListAlerts)
			r.Post("/alerts/{id}/ack", h.AcknowledgeAlert)
			r.Get("/ws", h.WebSocket)
		})
	})

	return r
}
