// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/slotward/slotward/internal/metrics"
	"github.com/slotward/slotward/internal/models"
)

// GetStats aggregates slot occupancy and ledger counts in two queries.
// Revenue sums active amounts only.
func (s *Store) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}

	start := time.Now()
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN occupied THEN 1 ELSE 0 END), 0) FROM slots`).
		Scan(&stats.TotalSlots, &stats.OccupiedSlots)
	metrics.RecordDBQuery("stats_slots", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate slots: %w", err)
	}
	stats.AvailableSlots = stats.TotalSlots - stats.OccupiedSlots

	start = time.Now()
	err = s.conn.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'released' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'expired' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'cancelled' AND refund_status = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'active' THEN amount ELSE 0 END), 0)
		 FROM bookings`).
		Scan(&stats.ActiveBookings, &stats.CancelledBookings, &stats.ReleasedBookings,
			&stats.ExpiredBookings, &stats.PendingRefunds, &stats.Revenue)
	metrics.RecordDBQuery("stats_bookings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bookings: %w", err)
	}

	return stats, nil
}
