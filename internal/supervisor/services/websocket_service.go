// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package services

import (
	"context"

	"github.com/slotward/slotward/internal/websocket"
)

// WebSocketHubService runs the broadcast hub under supervision.
type WebSocketHubService struct {
	hub  *websocket.Hub
	name string
}

// NewWebSocketHubService wraps a hub.
func NewWebSocketHubService(hub *websocket.Hub) *WebSocketHubService {
	return &WebSocketHubService{hub: hub, name: "websocket-hub"}
}

// Serve implements suture.Service.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	w.hub.Run(ctx)
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (w *WebSocketHubService) String() string {
	return w.name
}
