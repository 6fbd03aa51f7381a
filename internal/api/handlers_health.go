// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"net/http"
	"time"

	"github.com/slotward/slotward/internal/models"
)

// handleHealth reports overall health including store reachability.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	status := "healthy"
	code := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]any{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}, started)
}

// handleLiveness always succeeds while the process is up.
func (h *Handler) handleLiveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"}, time.Now())
}

// handleReadiness succeeds once the store answers.
func (h *Handler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeDatabase, "store not ready", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"}, started)
}
