// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package websocket fans booking lifecycle events out to connected
// dashboard clients.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/metrics"
	"github.com/slotward/slotward/internal/models"
)

// Message types pushed to clients.
const (
	TypeBookingCreated   = "booking_created"
	TypeBookingCancelled = "booking_cancelled"
	TypeBookingReleased  = "booking_released"
	TypeBookingExpired   = "booking_expired"
	TypeSlotUpdate       = "slot_update"
)

// Message is one event pushed to every connected client.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Hub tracks connected clients and broadcasts messages to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
}

// NewHub creates an idle hub; call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run pumps registrations and broadcasts until the context is
// canceled. Registration changes take priority over broadcasts so a
// disconnecting client never receives on a closed channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAllClients()
			logging.Info().Msg("WebSocket hub stopped")
			return
		case msg := <-h.broadcast:
			// Drain pending registrations first.
			select {
			case client := <-h.register:
				h.addClient(client)
			case client := <-h.unregister:
				h.removeClient(client)
			default:
			}
			h.broadcastToClients(msg)
		}
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	logging.Debug().Uint64("client_id", c.id).Int("clients", count).Msg("WebSocket client connected")
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	logging.Debug().Uint64("client_id", c.id).Int("clients", count).Msg("WebSocket client disconnected")
}

// broadcastToClients delivers to every client in client-ID order.
// Clients with a full send buffer are dropped rather than blocked on.
func (h *Hub) broadcastToClients(msg Message) {
	h.mu.RLock()
	ordered := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		ordered = append(ordered, c)
	}
	h.mu.RUnlock()
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })

	var toRemove []*Client
	for _, c := range ordered {
		select {
		case c.send <- msg:
		default:
			toRemove = append(toRemove, c)
		}
	}

	for _, c := range toRemove {
		logging.Warn().Uint64("client_id", c.id).Msg("Dropping slow WebSocket client")
		h.removeClient(c)
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WebSocketClients.Set(0)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues a message for delivery. Never blocks: when the
// queue is full the message is dropped with a warning.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logging.Warn().Str("type", msg.Type).Msg("Broadcast queue full, dropping message")
	}
}

// BookingEvent implements booking.Notifier.
func (h *Hub) BookingEvent(event string, b *models.Booking) {
	h.Broadcast(Message{Type: event, Data: b})
}

// SlotReleased implements booking.Notifier.
func (h *Hub) SlotReleased(slotNumber int) {
	h.Broadcast(Message{Type: TypeSlotUpdate, Data: map[string]any{
		"slot_number": slotNumber,
		"occupied":    false,
	}})
}
