// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package booking implements the reservation workflow on top of the
// store: booking, cancellation, admin release, refund approval, and
// the background expiry sweeper.
//
// Ordering rule: a slot is always acquired before its ledger entry is
// written, and the entry is resolved before (or as) the slot is
// released. The slot, not the ledger, is the arbiter of contention.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/metrics"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

// Notifier receives booking lifecycle events for fan-out to connected
// clients. Implementations must not block.
type Notifier interface {
	BookingEvent(event string, b *models.Booking)
	SlotReleased(slotNumber int)
}

// noopNotifier is used when no hub is wired.
type noopNotifier struct{}

func (noopNotifier) BookingEvent(string, *models.Booking) {}
func (noopNotifier) SlotReleased(int)                     {}

// Service coordinates slot acquisition and the booking ledger.
type Service struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

// NewService creates a booking service. notifier may be nil.
func NewService(st store.Store, notifier Notifier) *Service {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		store:    st,
		notifier: notifier,
		now:      time.Now,
	}
}

// Book reserves a slot for the given whole-hour duration and appends
// the active ledger entry.
//
// Declines are sentinel errors: store.ErrInvalidDuration for an
// unpriced duration, store.ErrSlotUnavailable when the slot is held,
// store.ErrSlotUnknown for an out-of-range slot. The slot is acquired
// before the ledger is touched, so a decline never leaves a partial
// record.
func (s *Service) Book(ctx context.Context, userID, userName, registration string, slotNumber, hours int) (*models.Booking, error) {
	amount, ok := RateFor(hours)
	if !ok {
		metrics.BookingsTotal.WithLabelValues("declined").Inc()
		return nil, store.ErrInvalidDuration
	}

	now := s.now().UTC()
	expiry := now.Add(time.Duration(hours) * time.Hour)

	acquired, err := s.store.TryAcquireSlot(ctx, slotNumber, userID, registration, expiry)
	if err != nil {
		return nil, err
	}
	if !acquired {
		metrics.BookingsTotal.WithLabelValues("declined").Inc()
		return nil, store.ErrSlotUnavailable
	}

	b := &models.Booking{
		ID:           uuid.NewString(),
		SlotNumber:   slotNumber,
		UserID:       userID,
		UserName:     userName,
		Registration: registration,
		Hours:        hours,
		Amount:       amount,
		Status:       models.BookingActive,
		CreatedAt:    now,
		ExpiresAt:    expiry,
		UpdatedAt:    now,
	}

	if err := s.store.AppendBooking(ctx, b); err != nil {
		// Compensate: give the slot back rather than strand it.
		if _, rerr := s.store.ReleaseSlot(ctx, slotNumber); rerr != nil {
			logging.Error().Err(rerr).Int("slot", slotNumber).Msg("Failed to release slot after ledger error")
		}
		return nil, fmt.Errorf("failed to record booking: %w", err)
	}

	metrics.BookingsTotal.WithLabelValues("created").Inc()
	metrics.SlotsOccupied.Inc()
	logging.Info().Str("booking_id", b.ID).Int("slot", slotNumber).Int("hours", hours).Msg("Slot booked")
	s.notifier.BookingEvent("booking_created", b)
	return b, nil
}

// Cancel resolves the caller's active booking on a slot and frees it.
//
// Returns store.ErrNotFound when the user holds no active booking on
// the slot, and store.ErrAlreadyResolved when the booking was resolved
// concurrently; in the latter case the slot is left untouched since
// the winning transition owns the release.
func (s *Service) Cancel(ctx context.Context, userID string, slotNumber int) (*models.Booking, error) {
	b, err := s.store.FindActiveBookingBySlot(ctx, slotNumber)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, store.ErrNotFound
	}

	ok, err := s.store.TransitionBooking(ctx, b.ID, models.BookingActive, models.BookingCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.ErrAlreadyResolved
	}

	if _, err := s.store.ReleaseSlot(ctx, slotNumber); err != nil {
		logging.Error().Err(err).Int("slot", slotNumber).Msg("Failed to release slot after cancellation")
	}

	b.Status = models.BookingCancelled
	b.RefundStatus = models.RefundPending
	b.RefundAmount = b.Amount

	metrics.BookingsTotal.WithLabelValues("cancelled").Inc()
	metrics.SlotsOccupied.Dec()
	logging.Info().Str("booking_id", b.ID).Int("slot", slotNumber).Msg("Booking cancelled, refund pending")
	s.notifier.BookingEvent("booking_cancelled", b)
	return b, nil
}

// ReleaseByAdmin forcibly frees a slot. The occupant's active booking,
// if any, is moved to released; a lost transition race is ignored
// since the slot ends up free either way. Never fails on a free slot.
func (s *Service) ReleaseByAdmin(ctx context.Context, slotNumber int) error {
	b, err := s.store.FindActiveBookingBySlot(ctx, slotNumber)
	if err == nil {
		if _, terr := s.store.TransitionBooking(ctx, b.ID, models.BookingActive, models.BookingReleased); terr != nil {
			logging.Error().Err(terr).Str("booking_id", b.ID).Msg("Failed to mark booking released")
		} else {
			metrics.BookingsTotal.WithLabelValues("released").Inc()
			s.notifier.BookingEvent("booking_released", b)
		}
	}

	released, err := s.store.ReleaseSlot(ctx, slotNumber)
	if err != nil {
		return err
	}
	if released {
		metrics.SlotsOccupied.Dec()
		s.notifier.SlotReleased(slotNumber)
	}
	logging.Info().Int("slot", slotNumber).Bool("was_occupied", released).Msg("Slot released by admin")
	return nil
}

// ApproveRefund marks a cancelled booking's refund approved. Approving
// an already approved refund overwrites the recorded amount; the
// operation stays idempotent from the client's point of view.
func (s *Service) ApproveRefund(ctx context.Context, bookingID string, amount int) error {
	ok, err := s.store.ApproveRefund(ctx, bookingID, amount)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	logging.Info().Str("booking_id", bookingID).Int("amount", amount).Msg("Refund approved")
	return nil
}

// Stats returns the aggregate snapshot.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats.TotalSlots > 0 {
		stats.OccupancyRate = float64(stats.OccupiedSlots) / float64(stats.TotalSlots)
	}
	return stats, nil
}
