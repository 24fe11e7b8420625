// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/lectern/internal/metrics"
)

// ChiMiddlewareConfig configures CORS and rate limiting.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAge           int

	// RateLimitRequests per RateLimitWindow applies to every /api route.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// LogRateLimitRequests per RateLimitWindow applies to the violation
	// endpoint on top of the general limit.
	LogRateLimitRequests int

	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns permissive CORS and 100 requests per
// minute with 30 violation reports per minute.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins:   []string{"*"},
		CORSMaxAge:           300,
		RateLimitRequests:    100,
		RateLimitWindow:      time.Minute,
		LogRateLimitRequests: 30,
	}
}

// ChiMiddleware builds the CORS and rate limit middleware for the router.
type ChiMiddleware struct {
	config   *ChiMiddlewareConfig
	resolver *IPResolver
	cors     func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory. Rate limit keys come
// from resolver so a trusted proxy does not collapse every client into one
// bucket.
func NewChiMiddleware(config *ChiMiddlewareConfig, resolver *IPResolver) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}
	if resolver == nil {
		resolver = &IPResolver{}
	}

	// Credentials cannot be combined with a wildcard origin.
	allowCredentials := config.CORSAllowCredentials
	for _, o := range config.CORSAllowedOrigins {
		if o == "*" {
			allowCredentials = false
		}
	}

	return &ChiMiddleware{
		config:   config,
		resolver: resolver,
		cors: cors.Handler(cors.Options{
			AllowedOrigins:   config.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
			AllowCredentials: allowCredentials,
			MaxAge:           config.CORSMaxAge,
		}),
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns the general per-client limiter.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.limit("api", m.config.RateLimitRequests)
}

// RateLimitLog returns the stricter limiter for violation reports.
func (m *ChiMiddleware) RateLimitLog() func(http.Handler) http.Handler {
	return m.limit("security_log", m.config.LogRateLimitRequests)
}

func (m *ChiMiddleware) limit(endpoint string, requests int) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled || requests <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		requests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(m.resolver.KeyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(endpoint).Inc()
			respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Too many requests", nil)
		}),
	)
}
