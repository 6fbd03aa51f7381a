// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/slotward/slotward/internal/metrics"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

const bookingColumns = `id, slot_number, user_id, user_name, registration, hours, amount,
	status, refund_status, refund_amount, created_at, expires_at, updated_at`

// AppendBooking inserts a new ledger entry.
func (s *Store) AppendBooking(ctx context.Context, b *models.Booking) error {
	start := time.Now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.SlotNumber, b.UserID, b.UserName, b.Registration, b.Hours, b.Amount,
		b.Status, b.RefundStatus, b.RefundAmount,
		b.CreatedAt.UTC(), b.ExpiresAt.UTC(), b.UpdatedAt.UTC())
	metrics.RecordDBQuery("append_booking", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to append booking: %w", err)
	}
	return nil
}

// FindActiveBooking returns the active booking with the given ID.
func (s *Store) FindActiveBooking(ctx context.Context, id string) (*models.Booking, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND status = ?`,
		id, models.BookingActive)
	b, err := scanBooking(row)
	metrics.RecordDBQuery("find_active_booking", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return b, err
}

// FindActiveBookingBySlot returns the active booking holding the slot.
func (s *Store) FindActiveBookingBySlot(ctx context.Context, slotNumber int) (*models.Booking, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE slot_number = ? AND status = ?
		 ORDER BY created_at DESC LIMIT 1`,
		slotNumber, models.BookingActive)
	b, err := scanBooking(row)
	metrics.RecordDBQuery("find_active_by_slot", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return b, err
}

// TransitionBooking atomically moves a booking between statuses. The
// status = from predicate is the optimistic concurrency guard: of two
// racing transitions exactly one sees RowsAffected = 1.
func (s *Store) TransitionBooking(ctx context.Context, id, from, to string) (bool, error) {
	var (
		res sql.Result
		err error
	)
	start := time.Now()
	if to == models.BookingCancelled {
		res, err = s.conn.ExecContext(ctx,
			`UPDATE bookings SET status = ?, refund_status = ?, refund_amount = amount, updated_at = ?
			 WHERE id = ? AND status = ?`,
			to, models.RefundPending, time.Now().UTC(), id, from)
	} else {
		res, err = s.conn.ExecContext(ctx,
			`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			to, time.Now().UTC(), id, from)
	}
	metrics.RecordDBQuery("transition_booking", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to transition booking: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read transition result: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := s.conn.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM bookings WHERE id = ?)`, id).Scan(&exists); err != nil {
			return false, fmt.Errorf("failed to check booking existence: %w", err)
		}
		if !exists {
			return false, store.ErrNotFound
		}
		return false, nil
	}
	return true, nil
}

// ApproveRefund marks a cancelled booking's refund approved.
// Re-approval matches again and overwrites the recorded amount.
func (s *Store) ApproveRefund(ctx context.Context, id string, amount int) (bool, error) {
	start := time.Now()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE bookings SET refund_status = ?, refund_amount = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		models.RefundApproved, amount, time.Now().UTC(), id, models.BookingCancelled)
	metrics.RecordDBQuery("approve_refund", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to approve refund: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read refund result: %w", err)
	}
	return affected > 0, nil
}

// ListBookings returns entries newest first, optionally filtered by
// status and capped by limit.
func (s *Store) ListBookings(ctx context.Context, status string, limit int) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	start := time.Now()
	rows, err := s.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("list_bookings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectBookings(rows)
}

// ListBookingsByUser returns one user's entries, newest first.
func (s *Store) ListBookingsByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	metrics.RecordDBQuery("list_bookings_by_user", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list user bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectBookings(rows)
}

// ListExpiredActive returns active bookings due at or before now.
func (s *Store) ListExpiredActive(ctx context.Context, now time.Time) ([]models.Booking, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE status = ? AND expires_at <= ? ORDER BY expires_at`,
		models.BookingActive, now.UTC())
	metrics.RecordDBQuery("list_expired_active", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(r rowScanner) (*models.Booking, error) {
	var b models.Booking
	err := r.Scan(&b.ID, &b.SlotNumber, &b.UserID, &b.UserName, &b.Registration,
		&b.Hours, &b.Amount, &b.Status, &b.RefundStatus, &b.RefundAmount,
		&b.CreatedAt, &b.ExpiresAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.ExpiresAt = b.ExpiresAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}
