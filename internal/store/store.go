// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package store defines the persistence contract for slot state, the
// booking ledger, and user accounts, together with the sentinel errors
// shared by every implementation.
//
// Two implementations exist: an in-memory store (internal/store/memory)
// used for tests and ephemeral deployments, and a DuckDB-backed store
// (internal/store/duckdb) for durable state. The booking service only
// sees this interface.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/slotward/slotward/internal/models"
)

// Sentinel errors returned by stores and the booking service. Handlers
// map these to HTTP status codes; they are expected request outcomes,
// never server faults.
var (
	// ErrInvalidDuration is returned when a booking duration has no
	// published rate.
	ErrInvalidDuration = errors.New("invalid booking duration")

	// ErrSlotUnavailable is returned when the requested slot is
	// already occupied.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrSlotUnknown is returned when the slot number is outside the
	// configured lot.
	ErrSlotUnknown = errors.New("unknown slot")

	// ErrNotFound is returned when a booking, refund, or user lookup
	// matches nothing.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyResolved is returned when a conditional status
	// transition finds the booking no longer in the expected state.
	ErrAlreadyResolved = errors.New("booking already resolved")

	// ErrEmailTaken is returned on registration with a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
)

// SlotStore manages slot occupancy. TryAcquireSlot and ReleaseSlot are
// the only mutations and both are atomic check-and-set operations:
// concurrent acquirers of the same slot see exactly one true result.
type SlotStore interface {
	// ListSlots returns every slot in slot-number order.
	ListSlots(ctx context.Context) ([]models.Slot, error)

	// GetSlot returns one slot, or ErrSlotUnknown.
	GetSlot(ctx context.Context, number int) (*models.Slot, error)

	// TryAcquireSlot marks the slot occupied if and only if it is
	// currently free. It returns false with a nil error when the slot
	// is already held, and ErrSlotUnknown for an out-of-range number.
	TryAcquireSlot(ctx context.Context, number int, userID, registration string, expiry time.Time) (bool, error)

	// ReleaseSlot clears occupancy. Releasing a free slot is a no-op
	// and returns false with a nil error.
	ReleaseSlot(ctx context.Context, number int) (bool, error)
}

// BookingLedger is the append-only record of bookings. Status moves
// through TransitionBooking, a conditional update that succeeds only
// when the current status matches the caller's expectation.
type BookingLedger interface {
	// AppendBooking inserts a new ledger entry.
	AppendBooking(ctx context.Context, b *models.Booking) error

	// FindActiveBooking returns the active booking with the given ID,
	// or ErrNotFound.
	FindActiveBooking(ctx context.Context, id string) (*models.Booking, error)

	// FindActiveBookingBySlot returns the active booking holding the
	// given slot, or ErrNotFound.
	FindActiveBookingBySlot(ctx context.Context, slotNumber int) (*models.Booking, error)

	// TransitionBooking atomically moves a booking from one status to
	// another. It returns false when the booking exists but is not in
	// the from status, and ErrNotFound when it does not exist. A
	// transition to the cancelled status also marks the refund
	// pending for the booked amount.
	TransitionBooking(ctx context.Context, id, from, to string) (bool, error)

	// ApproveRefund marks a cancelled booking's refund approved for
	// the given amount. Re-approval overwrites the recorded amount.
	// Returns false when no cancelled booking matches the ID.
	ApproveRefund(ctx context.Context, id string, amount int) (bool, error)

	// ListBookings returns ledger entries, newest first. Status
	// filters the result when non-empty; limit caps it when positive.
	ListBookings(ctx context.Context, status string, limit int) ([]models.Booking, error)

	// ListBookingsByUser returns one user's entries, newest first.
	ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error)

	// ListExpiredActive returns active bookings whose expiry is at or
	// before the given instant.
	ListExpiredActive(ctx context.Context, now time.Time) ([]models.Booking, error)
}

// UserStore manages registered accounts.
type UserStore interface {
	// CreateUser inserts an account, or ErrEmailTaken.
	CreateUser(ctx context.Context, u *models.User) error

	// GetUserByEmail returns an account by email, or ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns an account by ID, or ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateUserProfile updates mutable profile fields, or ErrNotFound.
	UpdateUserProfile(ctx context.Context, id, name, phone, vehicle string) error

	// ListUsers returns every account, oldest first.
	ListUsers(ctx context.Context) ([]models.User, error)

	// CountUsers returns the number of registered accounts.
	CountUsers(ctx context.Context) (int, error)
}

// StatsReader aggregates the current slot and ledger state.
type StatsReader interface {
	GetStats(ctx context.Context) (*models.Stats, error)
}

// Store is the full persistence surface injected into the booking
// service and the API layer.
type Store interface {
	SlotStore
	BookingLedger
	UserStore
	StatsReader

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Reset clears all bookings and occupancy. Admin-only.
	Reset(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}
