// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package booking

import (
	"context"
	"errors"
	"time"

	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/metrics"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

// Sweeper frees slots with lapsed holds on a fixed tick.
//
// The pass is slot-driven: every occupied slot whose hold has lapsed
// gets freed, whether or not a ledger entry still points at it. Each
// pass is idempotent: the active-to-expired transition is a
// conditional update, so a booking cancelled or released mid-pass
// simply loses the race and is skipped. Failures on one slot never
// stop the rest of the pass.
type Sweeper struct {
	store    store.Store
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a sweeper. notifier may be nil.
func NewSweeper(st store.Store, notifier Notifier, interval time.Duration) *Sweeper {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Sweeper{
		store:    st,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Run ticks until the context is canceled. Implements suture.Service.
func (sw *Sweeper) Run(ctx context.Context) error {
	logging.Info().Dur("interval", sw.interval).Msg("Expiry sweeper started")

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			sw.Sweep(ctx)
		}
	}
}

// Serve implements suture.Service.
func (sw *Sweeper) Serve(ctx context.Context) error {
	return sw.Run(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (sw *Sweeper) String() string { return "expiry-sweeper" }

// Sweep runs one pass and returns the number of slots resolved.
func (sw *Sweeper) Sweep(ctx context.Context) int {
	now := sw.now().UTC()
	swept := 0

	slots, err := sw.store.ListSlots(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Sweep failed to list slots")
		metrics.SweepsTotal.WithLabelValues("error").Inc()
		return 0
	}
	for i := range slots {
		s := &slots[i]
		if !s.Occupied || s.Expiry == nil || s.Expiry.After(now) {
			continue
		}
		ok, err := sw.sweepSlot(ctx, s.Number, now)
		if err != nil {
			// Isolate the failure; the rest of the pass continues
			// and the next tick retries this slot.
			logging.Error().Err(err).Int("slot", s.Number).Msg("Failed to sweep slot")
			continue
		}
		if ok {
			swept++
		}
	}

	// A lapsed active booking whose slot is already free (a forced
	// release that lost its ledger update) still needs resolving.
	orphans, err := sw.store.ListExpiredActive(ctx, now)
	if err != nil {
		logging.Error().Err(err).Msg("Sweep failed to list expired bookings")
		metrics.SweepsTotal.WithLabelValues("error").Inc()
		return swept
	}
	for i := range orphans {
		b := &orphans[i]
		ok, err := sw.expireOne(ctx, b)
		if err != nil {
			logging.Error().Err(err).Str("booking_id", b.ID).Int("slot", b.SlotNumber).Msg("Failed to expire booking")
			continue
		}
		if ok {
			swept++
		}
	}

	if swept > 0 {
		metrics.SweptBookingsTotal.Add(float64(swept))
		logging.Info().Int("swept", swept).Msg("Sweep freed slots")
	}
	metrics.SweepsTotal.WithLabelValues("ok").Inc()
	return swept
}

// sweepSlot resolves one occupied slot whose hold lapsed before now.
func (sw *Sweeper) sweepSlot(ctx context.Context, number int, now time.Time) (bool, error) {
	b, err := sw.store.FindActiveBookingBySlot(ctx, number)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// Stuck slot: occupied with a lapsed hold and no active
		// booking behind it. Free it unconditionally.
		if _, err := sw.store.ReleaseSlot(ctx, number); err != nil {
			return false, err
		}
		logging.Warn().Int("slot", number).Msg("Freed stuck slot with no active booking")
		metrics.SlotsOccupied.Dec()
		sw.notifier.SlotReleased(number)
		return true, nil
	case err != nil:
		return false, err
	}
	if b.ExpiresAt.After(now) {
		// The slot was freed and re-booked between the snapshot and
		// the lookup. Leave the new occupant alone.
		return false, nil
	}
	return sw.expireOne(ctx, b)
}

func (sw *Sweeper) expireOne(ctx context.Context, b *models.Booking) (bool, error) {
	ok, err := sw.store.TransitionBooking(ctx, b.ID, models.BookingActive, models.BookingExpired)
	if err != nil {
		return false, err
	}
	if !ok {
		// Resolved concurrently; the winner released the slot.
		return false, nil
	}

	released, err := sw.store.ReleaseSlot(ctx, b.SlotNumber)
	if err != nil {
		return true, err
	}

	metrics.BookingsTotal.WithLabelValues("expired").Inc()
	if released {
		metrics.SlotsOccupied.Dec()
	}
	b.Status = models.BookingExpired
	sw.notifier.BookingEvent("booking_expired", b)
	return true, nil
}
