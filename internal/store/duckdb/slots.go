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

// ListSlots returns every slot in slot-number order.
func (s *Store) ListSlots(ctx context.Context) ([]models.Slot, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT number, occupied, user_id, registration, expiry FROM slots ORDER BY number`)
	metrics.RecordDBQuery("list_slots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *slot)
	}
	return out, rows.Err()
}

// GetSlot returns one slot, or store.ErrSlotUnknown.
func (s *Store) GetSlot(ctx context.Context, number int) (*models.Slot, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT number, occupied, user_id, registration, expiry FROM slots WHERE number = ?`, number)
	slot, err := scanSlot(row)
	metrics.RecordDBQuery("get_slot", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSlotUnknown
	}
	return slot, err
}

// TryAcquireSlot marks the slot occupied if it is currently free.
// The occupied = FALSE predicate makes the acquire a single atomic
// check-and-set; RowsAffected tells the winner from the losers.
func (s *Store) TryAcquireSlot(ctx context.Context, number int, userID, registration string, expiry time.Time) (bool, error) {
	mu := s.lockSlot(number)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE slots SET occupied = TRUE, user_id = ?, registration = ?, expiry = ?
		 WHERE number = ? AND occupied = FALSE`,
		userID, registration, expiry.UTC(), number)
	metrics.RecordDBQuery("acquire_slot", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to acquire slot %d: %w", number, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read acquire result: %w", err)
	}
	if affected == 0 {
		// Either occupied or out of range; disambiguate for the caller.
		if _, gerr := s.GetSlot(ctx, number); gerr != nil {
			return false, gerr
		}
		return false, nil
	}
	return true, nil
}

// ReleaseSlot clears occupancy. Releasing a free slot is a no-op.
func (s *Store) ReleaseSlot(ctx context.Context, number int) (bool, error) {
	mu := s.lockSlot(number)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE slots SET occupied = FALSE, user_id = '', registration = '', expiry = NULL
		 WHERE number = ? AND occupied = TRUE`, number)
	metrics.RecordDBQuery("release_slot", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to release slot %d: %w", number, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read release result: %w", err)
	}
	if affected == 0 {
		if _, gerr := s.GetSlot(ctx, number); gerr != nil {
			return false, gerr
		}
		return false, nil
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(r rowScanner) (*models.Slot, error) {
	var (
		slot   models.Slot
		expiry sql.NullTime
	)
	if err := r.Scan(&slot.Number, &slot.Occupied, &slot.UserID, &slot.Registration, &expiry); err != nil {
		return nil, err
	}
	if expiry.Valid {
		t := expiry.Time.UTC()
		slot.Expiry = &t
	}
	return &slot, nil
}
