// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"net/http"

	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/websocket"
)

// handleWebSocket upgrades the connection and attaches the client to
// the hub. Authentication already ran; browsers pass the token via
// the "token" cookie.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodeInternal, "live updates are not configured", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		logging.Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	websocket.NewClient(h.hub, conn).Start()
}
