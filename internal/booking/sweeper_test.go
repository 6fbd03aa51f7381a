// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
	"github.com/slotward/slotward/internal/store/memory"
)

func TestSweepExpiresOverdueBookings(t *testing.T) {
	st := memory.New(5)
	svc := NewService(st, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if _, err := svc.Book(ctx, "u1", "User One", "KA-01-1111", 1, 1); err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := svc.Book(ctx, "u2", "User Two", "KA-02-2222", 2, 3); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	sw := NewSweeper(st, nil, time.Second)
	sw.now = func() time.Time { return base.Add(90 * time.Minute) }

	if swept := sw.Sweep(ctx); swept != 1 {
		t.Fatalf("Sweep expired %d bookings, want 1", swept)
	}

	slot1, _ := st.GetSlot(ctx, 1)
	if slot1.Occupied {
		t.Error("slot 1 still occupied after its booking expired")
	}
	slot2, _ := st.GetSlot(ctx, 2)
	if !slot2.Occupied {
		t.Error("slot 2 released before its expiry")
	}

	expired, _ := st.ListBookings(ctx, models.BookingExpired, 0)
	if len(expired) != 1 || expired[0].SlotNumber != 1 {
		t.Errorf("expired entries = %+v, want slot 1 only", expired)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	st := memory.New(3)
	svc := NewService(st, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if _, err := svc.Book(ctx, "u1", "User One", "KA-01-1111", 1, 1); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	sw := NewSweeper(st, nil, time.Second)
	sw.now = func() time.Time { return base.Add(2 * time.Hour) }

	if swept := sw.Sweep(ctx); swept != 1 {
		t.Fatalf("first Sweep expired %d, want 1", swept)
	}
	if swept := sw.Sweep(ctx); swept != 0 {
		t.Fatalf("second Sweep expired %d, want 0", swept)
	}
}

func TestSweepFreesStuckSlotWithoutLedgerEntry(t *testing.T) {
	st := memory.New(3)
	ctx := context.Background()

	// Occupied with a lapsed hold but no ledger entry behind it.
	past := time.Now().UTC().Add(-time.Hour)
	ok, err := st.TryAcquireSlot(ctx, 1, "u1", "KA-01-1111", past)
	if err != nil || !ok {
		t.Fatalf("TryAcquireSlot = %v, %v", ok, err)
	}

	sw := NewSweeper(st, nil, time.Second)
	if swept := sw.Sweep(ctx); swept != 1 {
		t.Fatalf("Sweep resolved %d slots, want 1", swept)
	}

	slot, err := st.GetSlot(ctx, 1)
	if err != nil {
		t.Fatalf("GetSlot failed: %v", err)
	}
	if slot.Occupied {
		t.Error("slot with lapsed hold still occupied after sweep")
	}

	if swept := sw.Sweep(ctx); swept != 0 {
		t.Errorf("second Sweep resolved %d slots, want 0", swept)
	}
}

func TestSweepSkipsConcurrentlyResolvedBooking(t *testing.T) {
	st := memory.New(3)
	svc := NewService(st, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	b, err := svc.Book(ctx, "u1", "User One", "KA-01-1111", 1, 1)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	// Cancelled between the list and the transition.
	racing := &resolveBeforeTransition{Store: st, svc: svc}
	sw := NewSweeper(racing, nil, time.Second)
	sw.now = func() time.Time { return base.Add(2 * time.Hour) }

	sw.Sweep(ctx)

	found, _ := st.ListBookings(ctx, models.BookingCancelled, 0)
	if len(found) != 1 || found[0].ID != b.ID {
		t.Fatalf("cancelled entries = %+v, want the racing cancellation", found)
	}
	expired, _ := st.ListBookings(ctx, models.BookingExpired, 0)
	if len(expired) != 0 {
		t.Errorf("expired entries = %d, want 0 after lost race", len(expired))
	}
}

// resolveBeforeTransition cancels the booking after the sweeper lists
// it but before it transitions, simulating a race.
type resolveBeforeTransition struct {
	store.Store
	svc      *Service
	resolved bool
}

func (r *resolveBeforeTransition) TransitionBooking(ctx context.Context, id, from, to string) (bool, error) {
	if !r.resolved {
		r.resolved = true
		b, err := r.Store.FindActiveBooking(ctx, id)
		if err == nil {
			if _, cerr := r.svc.Cancel(ctx, b.UserID, b.SlotNumber); cerr != nil {
				return false, cerr
			}
		}
	}
	return r.Store.TransitionBooking(ctx, id, from, to)
}

func TestSweepIsolatesPerSlotFailures(t *testing.T) {
	st := memory.New(5)
	svc := NewService(st, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	b1, err := svc.Book(ctx, "u1", "User One", "KA-01-1111", 1, 1)
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if _, err := svc.Book(ctx, "u2", "User Two", "KA-02-2222", 2, 1); err != nil {
		t.Fatalf("Book failed: %v", err)
	}

	failing := &failOneTransition{Store: st, failID: b1.ID}
	sw := NewSweeper(failing, nil, time.Second)
	sw.now = func() time.Time { return base.Add(2 * time.Hour) }

	if swept := sw.Sweep(ctx); swept != 1 {
		t.Fatalf("Sweep expired %d despite one failure, want 1", swept)
	}

	// The failed slot is retried on the next pass.
	failing.failID = ""
	if swept := sw.Sweep(ctx); swept != 1 {
		t.Fatalf("retry Sweep expired %d, want 1", swept)
	}
}

// failOneTransition fails transitions for a single booking ID.
type failOneTransition struct {
	store.Store
	failID string
}

func (f *failOneTransition) TransitionBooking(ctx context.Context, id, from, to string) (bool, error) {
	if id == f.failID {
		return false, errors.New("transition failed")
	}
	return f.Store.TransitionBooking(ctx, id, from, to)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	st := memory.New(1)
	sw := NewSweeper(st, nil, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
