// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package models defines the core domain types shared across the store,
// booking, and API layers.
package models

import "time"

// Booking lifecycle states. A booking starts out active and moves to
// exactly one terminal state via a conditional status transition.
const (
	BookingActive    = "active"
	BookingCancelled = "cancelled"
	BookingReleased  = "released"
	BookingExpired   = "expired"
)

// Refund states attached to cancelled bookings.
const (
	RefundNone     = ""
	RefundPending  = "pending"
	RefundApproved = "approved"
)

// User roles recognised by the authorization middleware.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Slot is a single parking slot and its current occupancy.
//
// Expiry and the occupant fields are only meaningful while Occupied is
// true; they are cleared on release.
type Slot struct {
	Number       int        `json:"number"`
	Occupied     bool       `json:"occupied"`
	UserID       string     `json:"user_id,omitempty"`
	Registration string     `json:"registration_number,omitempty"`
	Expiry       *time.Time `json:"expiry_time,omitempty"`
}

// Booking is one ledger entry. Entries are append-only: status and
// refund fields change via conditional updates, nothing is ever
// deleted outside of an explicit admin reset.
type Booking struct {
	ID           string    `json:"id"`
	SlotNumber   int       `json:"slot_number"`
	UserID       string    `json:"user_id"`
	UserName     string    `json:"user_name"`
	Registration string    `json:"registration_number"`
	Hours        int       `json:"hours"`
	Amount       int       `json:"amount"`
	Status       string    `json:"status"`
	RefundStatus string    `json:"refund_status,omitempty"`
	RefundAmount int       `json:"refund_amount,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// User is a registered account. PasswordHash is a bcrypt hash and is
// never serialized to API responses.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Vehicle      string    `json:"vehicle,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats is the aggregate snapshot served to admins.
//
// Revenue counts active bookings only: cancelled, released, and
// expired entries contribute nothing regardless of refund state.
type Stats struct {
	TotalSlots        int `json:"total_slots"`
	OccupiedSlots     int `json:"occupied_slots"`
	AvailableSlots    int `json:"available_slots"`
	ActiveBookings    int `json:"active_bookings"`
	CancelledBookings int `json:"cancelled_bookings"`
	ReleasedBookings  int `json:"released_bookings"`
	ExpiredBookings   int `json:"expired_bookings"`
	PendingRefunds    int `json:"pending_refunds"`
	Revenue           int `json:"revenue"`
	// OccupancyRate is occupied over total, 0 when the lot is empty.
	OccupancyRate float64 `json:"occupancy_rate"`
}

// Location is a static parking location entry used by the nearby
// lookup endpoint.
type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Slots     int     `json:"slots"`
}
