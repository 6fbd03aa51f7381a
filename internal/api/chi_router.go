// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slotward/slotward/internal/auth"
	"github.com/slotward/slotward/internal/middleware"
	"github.com/slotward/slotward/internal/models"
)

// Router assembles the chi route tree.
type Router struct {
	handler       *Handler
	authMW        *auth.Middleware
	chiMiddleware *ChiMiddleware
}

// NewRouter creates the router.
func NewRouter(handler *Handler, authMW *auth.Middleware, chiMW *ChiMiddleware) *Router {
	return &Router{
		handler:       handler,
		authMW:        authMW,
		chiMiddleware: chiMW,
	}
}

// SetupChi builds the full route tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	h := router.handler

	// ========================
	// Health and metrics
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitByIP(RateLimitHealth))
		r.Get("/", h.handleHealth)
		r.Get("/live", h.handleLiveness)
		r.Get("/ready", h.handleReadiness)
	})
	r.Handle("/metrics", promhttp.Handler())

	// ========================
	// Public API
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitByIP(RateLimitAPI))
		r.Use(APISecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Get("/slots", h.handleListSlots)
		r.Get("/locations", h.handleLocations)
		r.Get("/history", h.handleHistory)

		r.Route("/auth", func(r chi.Router) {
			r.With(router.chiMiddleware.RateLimitByIP(RateLimitAuth)).Post("/register", h.handleRegister)
			r.With(router.chiMiddleware.RateLimitByIP(RateLimitLogin)).Post("/login", h.handleLogin)
		})

		// ========================
		// Authenticated API
		// ========================
		r.Group(func(r chi.Router) {
			r.Use(router.authMW.Authenticate)

			r.Get("/auth/profile", h.handleGetProfile)
			r.Put("/auth/profile", h.handleUpdateProfile)
			r.Post("/slots/book", h.handleBook)
			r.Post("/bookings/cancel", h.handleCancel)
			r.Get("/bookings", h.handleMyBookings)
			r.Post("/payment/checkout", h.handleCheckout)
			r.Get("/ws", h.handleWebSocket)
		})

		// ========================
		// Admin API
		// ========================
		r.Route("/admin", func(r chi.Router) {
			r.Use(router.authMW.Authenticate)
			r.Use(router.authMW.RequireRole(models.RoleAdmin))

			r.Get("/stats", h.handleStats)
			r.Post("/release-slot/{slotID}", h.handleReleaseSlot)
			r.Post("/approve-refund", h.handleApproveRefund)
			r.Get("/bookings", h.handleAdminBookings)
			r.Get("/users", h.handleAdminUsers)
			r.Get("/cancellations", h.handleAdminCancellations)
			r.Post("/reset", h.handleAdminReset)
		})
	})

	return r
}
