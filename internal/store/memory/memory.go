// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package memory provides an in-memory store.Store implementation.
//
// Slot occupancy uses one mutex per slot so that acquire and release
// on different slots never contend, while concurrent acquirers of the
// same slot serialize and exactly one wins.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

// Ensure Store implements the full persistence surface.
var _ store.Store = (*Store)(nil)

type slotState struct {
	mu   sync.Mutex
	slot models.Slot
}

// Store holds all state in process memory. Safe for concurrent use.
type Store struct {
	slots map[int]*slotState

	mu       sync.RWMutex
	bookings map[string]*models.Booking
	order    []string // booking IDs in append order

	userMu       sync.RWMutex
	users        map[string]*models.User
	usersByEmail map[string]string
}

// New creates a store with slots numbered 1..slotCount, all free.
func New(slotCount int) *Store {
	s := &Store{
		slots:        make(map[int]*slotState, slotCount),
		bookings:     make(map[string]*models.Booking),
		users:        make(map[string]*models.User),
		usersByEmail: make(map[string]string),
	}
	for n := 1; n <= slotCount; n++ {
		s.slots[n] = &slotState{slot: models.Slot{Number: n}}
	}
	return s
}

// ListSlots returns every slot in slot-number order.
func (s *Store) ListSlots(_ context.Context) ([]models.Slot, error) {
	numbers := make([]int, 0, len(s.slots))
	for n := range s.slots {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	out := make([]models.Slot, 0, len(numbers))
	for _, n := range numbers {
		st := s.slots[n]
		st.mu.Lock()
		out = append(out, st.slot)
		st.mu.Unlock()
	}
	return out, nil
}

// GetSlot returns one slot, or store.ErrSlotUnknown.
func (s *Store) GetSlot(_ context.Context, number int) (*models.Slot, error) {
	st, ok := s.slots[number]
	if !ok {
		return nil, store.ErrSlotUnknown
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	slot := st.slot
	return &slot, nil
}

// TryAcquireSlot marks the slot occupied if it is currently free.
func (s *Store) TryAcquireSlot(_ context.Context, number int, userID, registration string, expiry time.Time) (bool, error) {
	st, ok := s.slots[number]
	if !ok {
		return false, store.ErrSlotUnknown
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.slot.Occupied {
		return false, nil
	}

	exp := expiry
	st.slot.Occupied = true
	st.slot.UserID = userID
	st.slot.Registration = registration
	st.slot.Expiry = &exp
	return true, nil
}

// ReleaseSlot clears occupancy. Releasing a free slot is a no-op.
func (s *Store) ReleaseSlot(_ context.Context, number int) (bool, error) {
	st, ok := s.slots[number]
	if !ok {
		return false, store.ErrSlotUnknown
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.slot.Occupied {
		return false, nil
	}

	st.slot.Occupied = false
	st.slot.UserID = ""
	st.slot.Registration = ""
	st.slot.Expiry = nil
	return true, nil
}

// AppendBooking inserts a new ledger entry.
func (s *Store) AppendBooking(_ context.Context, b *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *b
	s.bookings[b.ID] = &cp
	s.order = append(s.order, b.ID)
	return nil
}

// FindActiveBooking returns the active booking with the given ID.
func (s *Store) FindActiveBooking(_ context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok || b.Status != models.BookingActive {
		return nil, store.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// FindActiveBookingBySlot returns the active booking holding the slot.
func (s *Store) FindActiveBookingBySlot(_ context.Context, slotNumber int) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first so a stale terminal entry never shadows the
	// current occupant.
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.bookings[s.order[i]]
		if b.SlotNumber == slotNumber && b.Status == models.BookingActive {
			cp := *b
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

// TransitionBooking atomically moves a booking between statuses.
func (s *Store) TransitionBooking(_ context.Context, id, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return false, store.ErrNotFound
	}
	if b.Status != from {
		return false, nil
	}

	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	if to == models.BookingCancelled {
		b.RefundStatus = models.RefundPending
		b.RefundAmount = b.Amount
	}
	return true, nil
}

// ApproveRefund marks a cancelled booking's refund approved.
// Re-approval overwrites the recorded amount.
func (s *Store) ApproveRefund(_ context.Context, id string, amount int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.Status != models.BookingCancelled {
		return false, nil
	}

	b.RefundStatus = models.RefundApproved
	b.RefundAmount = amount
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

// ListBookings returns entries newest first, optionally filtered.
func (s *Store) ListBookings(_ context.Context, status string, limit int) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Booking, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.bookings[s.order[i]]
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, *b)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// ListBookingsByUser returns one user's entries, newest first.
func (s *Store) ListBookingsByUser(_ context.Context, userID string) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Booking
	for i := len(s.order) - 1; i >= 0; i-- {
		b := s.bookings[s.order[i]]
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// ListExpiredActive returns active bookings due at or before now.
func (s *Store) ListExpiredActive(_ context.Context, now time.Time) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Booking
	for _, id := range s.order {
		b := s.bookings[id]
		if b.Status == models.BookingActive && !b.ExpiresAt.After(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

// CreateUser inserts an account, or store.ErrEmailTaken.
func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	if _, exists := s.usersByEmail[u.Email]; exists {
		return store.ErrEmailTaken
	}
	cp := *u
	s.users[u.ID] = &cp
	s.usersByEmail[u.Email] = u.ID
	return nil
}

// GetUserByEmail returns an account by email, or store.ErrNotFound.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()

	id, ok := s.usersByEmail[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

// GetUserByID returns an account by ID, or store.ErrNotFound.
func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// UpdateUserProfile updates mutable profile fields.
func (s *Store) UpdateUserProfile(_ context.Context, id, name, phone, vehicle string) error {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if name != "" {
		u.Name = name
	}
	u.Phone = phone
	u.Vehicle = vehicle
	return nil
}

// ListUsers returns every account, oldest first.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CountUsers returns the number of registered accounts.
func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.userMu.RLock()
	defer s.userMu.RUnlock()
	return len(s.users), nil
}

// GetStats aggregates slot occupancy and ledger counts.
func (s *Store) GetStats(ctx context.Context) (*models.Stats, error) {
	slots, err := s.ListSlots(ctx)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{TotalSlots: len(slots)}
	for _, slot := range slots {
		if slot.Occupied {
			stats.OccupiedSlots++
		}
	}
	stats.AvailableSlots = stats.TotalSlots - stats.OccupiedSlots

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		switch b.Status {
		case models.BookingActive:
			stats.ActiveBookings++
			stats.Revenue += b.Amount
		case models.BookingCancelled:
			stats.CancelledBookings++
			if b.RefundStatus == models.RefundPending {
				stats.PendingRefunds++
			}
		case models.BookingReleased:
			stats.ReleasedBookings++
		case models.BookingExpired:
			stats.ExpiredBookings++
		}
	}
	return stats, nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Reset clears all bookings and occupancy. Accounts survive.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	s.bookings = make(map[string]*models.Booking)
	s.order = nil
	s.mu.Unlock()

	for _, st := range s.slots {
		st.mu.Lock()
		st.slot.Occupied = false
		st.slot.UserID = ""
		st.slot.Registration = ""
		st.slot.Expiry = nil
		st.mu.Unlock()
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }
