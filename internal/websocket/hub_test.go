// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/slotward/slotward/internal/models"
)

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()

	// No Run loop is draining; fill the queue past capacity.
	for i := 0; i < 300; i++ {
		done := make(chan struct{})
		go func() {
			hub.Broadcast(Message{Type: TypeSlotUpdate})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("Broadcast blocked on message %d", i)
		}
	}
}

func TestHubRegisterAndShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := &Client{id: 1, hub: hub, send: make(chan Message, 4)}
	hub.register <- c

	deadline := time.After(time.Second)
	for hub.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	hub.Broadcast(Message{Type: TypeBookingCreated, Data: &models.Booking{ID: "b1"}})
	select {
	case msg := <-c.send:
		if msg.Type != TypeBookingCreated {
			t.Errorf("message type = %q", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("registered client received nothing")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("clients after shutdown = %d, want 0", hub.ClientCount())
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// Buffer of zero: the first broadcast overflows immediately.
	c := &Client{id: 1, hub: hub, send: make(chan Message)}
	hub.register <- c

	deadline := time.After(time.Second)
	for hub.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	hub.Broadcast(Message{Type: TypeSlotUpdate})

	deadline = time.After(time.Second)
	for hub.ClientCount() != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client was not dropped")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestNotifierAdapters(t *testing.T) {
	hub := NewHub()

	hub.BookingEvent("booking_expired", &models.Booking{ID: "b1"})
	hub.SlotReleased(4)

	if len(hub.broadcast) != 2 {
		t.Fatalf("queued %d messages, want 2", len(hub.broadcast))
	}
	first := <-hub.broadcast
	if first.Type != TypeBookingExpired {
		t.Errorf("first message type = %q", first.Type)
	}
	second := <-hub.broadcast
	if second.Type != TypeSlotUpdate {
		t.Errorf("second message type = %q", second.Type)
	}
}
