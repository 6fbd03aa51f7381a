// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

func testBooking(id string, slot int, status string, expires time.Time) *models.Booking {
	now := time.Now().UTC()
	return &models.Booking{
		ID:         id,
		SlotNumber: slot,
		UserID:     "u1",
		UserName:   "User One",
		Hours:      1,
		Amount:     50,
		Status:     status,
		CreatedAt:  now,
		ExpiresAt:  expires,
		UpdatedAt:  now,
	}
}

func TestTryAcquireSlotSingleWinner(t *testing.T) {
	st := New(1)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	const contenders = 64
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := st.TryAcquireSlot(ctx, 1, "u", "KA-00-0000", expiry)
			if err != nil {
				t.Errorf("TryAcquireSlot failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("got %d winners, want 1", wins)
	}
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	st := New(3)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour).UTC()

	ok, err := st.TryAcquireSlot(ctx, 2, "u1", "KA-01-1234", expiry)
	if err != nil || !ok {
		t.Fatalf("TryAcquireSlot = %v, %v; want true, nil", ok, err)
	}

	slot, err := st.GetSlot(ctx, 2)
	if err != nil {
		t.Fatalf("GetSlot failed: %v", err)
	}
	if !slot.Occupied || slot.UserID != "u1" || slot.Expiry == nil || !slot.Expiry.Equal(expiry) {
		t.Errorf("slot after acquire = %+v", slot)
	}

	released, err := st.ReleaseSlot(ctx, 2)
	if err != nil || !released {
		t.Fatalf("ReleaseSlot = %v, %v; want true, nil", released, err)
	}

	slot, _ = st.GetSlot(ctx, 2)
	if slot.Occupied || slot.UserID != "" || slot.Expiry != nil {
		t.Errorf("slot after release = %+v", slot)
	}

	// Releasing again is a no-op.
	released, err = st.ReleaseSlot(ctx, 2)
	if err != nil || released {
		t.Errorf("double release = %v, %v; want false, nil", released, err)
	}
}

func TestUnknownSlotErrors(t *testing.T) {
	st := New(2)
	ctx := context.Background()

	if _, err := st.GetSlot(ctx, 3); !errors.Is(err, store.ErrSlotUnknown) {
		t.Errorf("GetSlot(3) error = %v, want ErrSlotUnknown", err)
	}
	if _, err := st.TryAcquireSlot(ctx, 0, "u", "r", time.Now()); !errors.Is(err, store.ErrSlotUnknown) {
		t.Errorf("TryAcquireSlot(0) error = %v, want ErrSlotUnknown", err)
	}
}

func TestTransitionBookingGuard(t *testing.T) {
	st := New(1)
	ctx := context.Background()

	b := testBooking("b1", 1, models.BookingActive, time.Now().Add(time.Hour))
	if err := st.AppendBooking(ctx, b); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}

	ok, err := st.TransitionBooking(ctx, "b1", models.BookingActive, models.BookingCancelled)
	if err != nil || !ok {
		t.Fatalf("transition = %v, %v; want true, nil", ok, err)
	}

	// Wrong from-status loses.
	ok, err = st.TransitionBooking(ctx, "b1", models.BookingActive, models.BookingExpired)
	if err != nil || ok {
		t.Fatalf("stale transition = %v, %v; want false, nil", ok, err)
	}

	// Missing booking is an error, not a lost race.
	if _, err := st.TransitionBooking(ctx, "missing", models.BookingActive, models.BookingExpired); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("transition of missing booking error = %v, want ErrNotFound", err)
	}
}

func TestTransitionToCancelledMarksRefund(t *testing.T) {
	st := New(1)
	ctx := context.Background()

	b := testBooking("b1", 1, models.BookingActive, time.Now().Add(time.Hour))
	b.Amount = 150
	if err := st.AppendBooking(ctx, b); err != nil {
		t.Fatalf("AppendBooking failed: %v", err)
	}
	if _, err := st.TransitionBooking(ctx, "b1", models.BookingActive, models.BookingCancelled); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	entries, _ := st.ListBookings(ctx, models.BookingCancelled, 0)
	if len(entries) != 1 {
		t.Fatalf("cancelled entries = %d, want 1", len(entries))
	}
	if entries[0].RefundStatus != models.RefundPending || entries[0].RefundAmount != 150 {
		t.Errorf("refund = %q/%d, want pending/150", entries[0].RefundStatus, entries[0].RefundAmount)
	}
}

func TestFindActiveBookingBySlotPrefersNewest(t *testing.T) {
	st := New(1)
	ctx := context.Background()

	old := testBooking("old", 1, models.BookingExpired, time.Now().Add(-time.Hour))
	current := testBooking("current", 1, models.BookingActive, time.Now().Add(time.Hour))
	if err := st.AppendBooking(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendBooking(ctx, current); err != nil {
		t.Fatal(err)
	}

	found, err := st.FindActiveBookingBySlot(ctx, 1)
	if err != nil {
		t.Fatalf("FindActiveBookingBySlot failed: %v", err)
	}
	if found.ID != "current" {
		t.Errorf("found %q, want current", found.ID)
	}
}

func TestListExpiredActive(t *testing.T) {
	st := New(3)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []*models.Booking{
		testBooking("due", 1, models.BookingActive, now.Add(-time.Minute)),
		testBooking("exact", 2, models.BookingActive, now),
		testBooking("future", 3, models.BookingActive, now.Add(time.Minute)),
	}
	for _, b := range entries {
		if err := st.AppendBooking(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	expired, err := st.ListExpiredActive(ctx, now)
	if err != nil {
		t.Fatalf("ListExpiredActive failed: %v", err)
	}
	if len(expired) != 2 {
		t.Fatalf("expired = %d entries, want 2 (due and exactly-due)", len(expired))
	}
}

func TestUserLifecycle(t *testing.T) {
	st := New(1)
	ctx := context.Background()

	u := &models.User{
		ID:        "u1",
		Email:     "one@example.com",
		Name:      "User One",
		Role:      models.RoleUser,
		CreatedAt: time.Now().UTC(),
	}
	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	dup := *u
	dup.ID = "u2"
	if err := st.CreateUser(ctx, &dup); !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}

	if err := st.UpdateUserProfile(ctx, "u1", "Renamed", "555-0100", "KA-09-9999"); err != nil {
		t.Fatalf("UpdateUserProfile failed: %v", err)
	}
	got, err := st.GetUserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if got.Name != "Renamed" || got.Phone != "555-0100" {
		t.Errorf("profile after update = %+v", got)
	}

	count, _ := st.CountUsers(ctx)
	if count != 1 {
		t.Errorf("CountUsers = %d, want 1", count)
	}
}

func TestResetClearsBookingsAndOccupancyOnly(t *testing.T) {
	st := New(2)
	ctx := context.Background()

	if err := st.CreateUser(ctx, &models.User{ID: "u1", Email: "one@example.com", CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.TryAcquireSlot(ctx, 1, "u1", "KA-01-1234", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := st.AppendBooking(ctx, testBooking("b1", 1, models.BookingActive, time.Now().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	if err := st.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	slot, _ := st.GetSlot(ctx, 1)
	if slot.Occupied {
		t.Error("slot occupied after reset")
	}
	entries, _ := st.ListBookings(ctx, "", 0)
	if len(entries) != 0 {
		t.Errorf("bookings after reset = %d, want 0", len(entries))
	}
	if count, _ := st.CountUsers(ctx); count != 1 {
		t.Error("reset removed user accounts")
	}
}

func BenchmarkTryAcquireRelease(b *testing.B) {
	st := New(16)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour)

	b.RunParallel(func(pb *testing.PB) {
		n := 1
		for pb.Next() {
			slot := n%16 + 1
			n++
			if ok, _ := st.TryAcquireSlot(ctx, slot, "u", "r", expiry); ok {
				_, _ = st.ReleaseSlot(ctx, slot)
			}
		}
	})
}
