// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RateLimitConfig pairs a request allowance with its window.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Per-group rate limits. Login is deliberately tight to slow
// credential stuffing.
var (
	RateLimitAPI    = RateLimitConfig{Requests: 100, Window: time.Minute}
	RateLimitAuth   = RateLimitConfig{Requests: 5, Window: time.Minute}
	RateLimitLogin  = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// ChiMiddleware bundles cross-cutting middleware for the chi router.
type ChiMiddleware struct {
	corsOrigins []string
}

// NewChiMiddleware creates the middleware bundle.
func NewChiMiddleware(corsOrigins []string) *ChiMiddleware {
	return &ChiMiddleware{corsOrigins: corsOrigins}
}

// CORS returns the CORS handler for the configured origins.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   m.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// RateLimitByIP limits requests per client IP for one config.
func (m *ChiMiddleware) RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.LimitByIP(cfg.Requests, cfg.Window)
}

// APISecurityHeaders sets defensive response headers on API routes.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// chiMiddleware adapts a HandlerFunc middleware to chi's
// func(http.Handler) http.Handler shape.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}
