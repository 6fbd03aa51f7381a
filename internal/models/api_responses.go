// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package models

import "time"

// APIResponse is the uniform envelope returned by every JSON endpoint.
//
// Status is "success" or "error". Data carries the payload on success,
// Error is populated on failure; the two are mutually exclusive.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata carries response timing information.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the machine-readable error body. Code is a stable
// uppercase identifier for clients; Message is human-readable.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Well-known error codes.
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeSlotUnavailable = "SLOT_UNAVAILABLE"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyResolved = "ALREADY_RESOLVED"
	ErrCodeAuthentication  = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization   = "AUTHORIZATION_ERROR"
	ErrCodeConflict        = "CONFLICT"
	ErrCodePayment         = "PAYMENT_ERROR"
	ErrCodeDatabase        = "DATABASE_ERROR"
	ErrCodeInternal        = "INTERNAL_ERROR"
)
