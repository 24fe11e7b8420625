// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/lectern/internal/api"
	"github.com/tomtom215/lectern/internal/auth"
	"github.com/tomtom215/lectern/internal/authz"
	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/detection"
	"github.com/tomtom215/lectern/internal/events"
	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/seclog"
	"github.com/tomtom215/lectern/internal/supervisor"
	"github.com/tomtom215/lectern/internal/supervisor/services"
	ws "github.com/tomtom215/lectern/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		// Default logger until the configured one exists
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("storage", cfg.Storage.Backend).
		Str("events", cfg.Events.Backend).
		Bool("detection", cfg.Detection.Enabled).
		Msg("Starting Lectern security audit service")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Lectern failed")
	}
	logging.Info().Msg("Lectern stopped gracefully")
}

// run owns every resource so deferred cleanup happens before main exits.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing security log store")
		}
	}()
	logging.Info().Str("backend", store.Backend()).Str("path", cfg.Storage.Path).Msg("Security log store opened")

	bus, err := events.NewBus(cfg.Events, nil)
	if err != nil {
		return fmt.Errorf("create event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	recorder := seclog.NewRecorder(store, bus)
	hub := ws.NewHub()

	router := events.NewRouter(cfg.Events, bus.Subscriber(), nil)
	router.AddConsumer(ws.NewLiveFeed(hub))

	// alerts stays a nil interface when detection is off so the alert
	// endpoints report the feature as unavailable.
	var alerts detection.AlertStore
	var engine *detection.Engine
	if cfg.Detection.Enabled {
		alertStore := detection.NewMemoryAlertStore(cfg.Detection.AlertCapacity)
		engine = detection.NewEngineFromConfig(cfg.Detection, alertStore, hub)
		router.AddConsumer(engine)
		alerts = alertStore
	} else {
		logging.Info().Msg("Detection engine disabled (DETECTION_ENABLED=false)")
	}

	handler, err := buildHTTPHandler(cfg, recorder, alerts, hub)
	if err != nil {
		return fmt.Errorf("build http handler: %w", err)
	}
	defer handler.close()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	// Data layer
	if cfg.Storage.Retention > 0 {
		tree.AddDataService(seclog.NewRetention(store, cfg.Storage.Retention, cfg.Storage.RetentionInterval))
		logging.Info().Dur("max_age", cfg.Storage.Retention).Msg("Retention service added")
	}

	// Messaging layer
	tree.AddMessagingService(hub)
	tree.AddMessagingService(router)

	// API layer
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	// Webhook deliveries run detached from the router.
	if engine != nil {
		engine.Wait()
	}
	return nil
}

// httpHandler is the routed API plus the resources it owns.
type httpHandler struct {
	http.Handler
	enforcer *authz.Enforcer
}

func (h *httpHandler) close() {
	h.enforcer.Close()
}

// buildHTTPHandler wires authentication, authorization and the API routes.
func buildHTTPHandler(cfg *config.Config, recorder *seclog.Recorder, alerts detection.AlertStore, hub *ws.Hub) (*httpHandler, error) {
	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, 0, cfg.Security.JWTIssuer)
	if err != nil {
		return nil, err
	}

	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		PolicyPath:     cfg.Security.PolicyPath,
		ReloadInterval: cfg.Security.PolicyReloadInterval,
		DefaultRole:    auth.RoleLearner,
		CacheTTL:       authz.DefaultEnforcerConfig().CacheTTL,
	})
	if err != nil {
		return nil, err
	}

	resolver, err := api.NewIPResolver(cfg.Security.TrustedProxies)
	if err != nil {
		enforcer.Close()
		return nil, err
	}

	chiMW := api.NewChiMiddleware(&api.ChiMiddlewareConfig{
		CORSAllowedOrigins:   cfg.Security.CORSOrigins,
		CORSMaxAge:           300,
		RateLimitRequests:    cfg.Security.RateLimitReqs,
		RateLimitWindow:      cfg.Security.RateLimitWindow,
		LogRateLimitRequests: cfg.Security.LogRateLimitReqs,
		RateLimitDisabled:    cfg.Security.RateLimitDisabled,
	}, resolver)

	handler := api.NewHandler(api.HandlerDeps{
		Recorder:    recorder,
		Alerts:      alerts,
		Hub:         hub,
		Protection:  cfg.Protection,
		Resolver:    resolver,
		CORSOrigins: cfg.Security.CORSOrigins,
	})

	r := api.NewRouter(handler, chiMW, auth.NewMiddleware(jwtManager, cfg.Security.TokenCookie), authz.NewMiddleware(enforcer))
	return &httpHandler{Handler: r.Setup(), enforcer: enforcer}, nil
}
