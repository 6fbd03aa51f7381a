// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package api implements the HTTP surface: the chi router, the JSON
// handlers, and the request middleware stack.
package api

import (
	"net/http"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/slotward/slotward/internal/auth"
	"github.com/slotward/slotward/internal/booking"
	"github.com/slotward/slotward/internal/config"
	"github.com/slotward/slotward/internal/payment"
	"github.com/slotward/slotward/internal/store"
	"github.com/slotward/slotward/internal/websocket"
)

// Handler owns the HTTP endpoints and their dependencies.
type Handler struct {
	cfg       *config.Config
	store     store.Store
	bookings  *booking.Service
	jwt       *auth.JWTManager
	gateway   *payment.Gateway
	hub       *websocket.Hub
	upgrader  gorillaws.Upgrader
	startTime time.Time
}

// NewHandler wires the handler with its dependencies. hub and gateway
// may be nil; the corresponding endpoints then report unavailable.
func NewHandler(cfg *config.Config, st store.Store, svc *booking.Service, jwt *auth.JWTManager, gateway *payment.Gateway, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    st,
		bookings: svc,
		jwt:      jwt,
		gateway:  gateway,
		hub:      hub,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.Security.CORSOrigins),
		},
		startTime: time.Now(),
	}
}

// originChecker allows WebSocket upgrades from the configured CORS
// origins only.
func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return wildcard || allowed[origin]
	}
}
