// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package duckdb provides the durable store.Store implementation on an
// embedded DuckDB database.
//
// Occupancy and status changes are conditional UPDATEs checked through
// RowsAffected, so every check-and-set is a single atomic statement.
// A per-slot lock map additionally serializes acquire/release on the
// same slot, keeping slot writes ordered without a global lock.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/slotward/slotward/internal/config"
	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/store"
)

// Ensure Store implements the full persistence surface.
var _ store.Store = (*Store)(nil)

// Store wraps a DuckDB connection pool.
type Store struct {
	conn *sql.DB

	// slotLocks serializes writes per slot number.
	slotLocks sync.Map

	slotCount int
}

// New opens (or creates) the database at cfg.Path and initializes the
// schema, seeding slots 1..slotCount when the table is empty.
func New(cfg *config.DatabaseConfig, slotCount int) (*Store, error) {
	dbDir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dbDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, cfg.Threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(time.Hour)

	s := &Store{conn: conn, slotCount: slotCount}
	if err := s.initialize(context.Background()); err != nil {
		if cerr := conn.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Failed to close database after init error")
		}
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("slots", slotCount).Msg("Database ready")
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	if err := s.createTables(ctx); err != nil {
		return err
	}
	if err := s.seedSlots(ctx); err != nil {
		return err
	}
	_, err := s.conn.ExecContext(ctx, "CHECKPOINT")
	return err
}

func (s *Store) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS slots (
			number       INTEGER PRIMARY KEY,
			occupied     BOOLEAN NOT NULL DEFAULT FALSE,
			user_id      VARCHAR NOT NULL DEFAULT '',
			registration VARCHAR NOT NULL DEFAULT '',
			expiry       TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id            VARCHAR PRIMARY KEY,
			slot_number   INTEGER NOT NULL,
			user_id       VARCHAR NOT NULL,
			user_name     VARCHAR NOT NULL,
			registration  VARCHAR NOT NULL,
			hours         INTEGER NOT NULL,
			amount        INTEGER NOT NULL,
			status        VARCHAR NOT NULL,
			refund_status VARCHAR NOT NULL DEFAULT '',
			refund_amount INTEGER NOT NULL DEFAULT 0,
			created_at    TIMESTAMP NOT NULL,
			expires_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id            VARCHAR PRIMARY KEY,
			email         VARCHAR NOT NULL UNIQUE,
			name          VARCHAR NOT NULL,
			password_hash VARCHAR NOT NULL,
			role          VARCHAR NOT NULL,
			phone         VARCHAR NOT NULL DEFAULT '',
			vehicle       VARCHAR NOT NULL DEFAULT '',
			created_at    TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_slot_status ON bookings(slot_number, status)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_status_expires ON bookings(status, expires_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// seedSlots inserts missing slot rows up to the configured count.
// Existing rows keep their occupancy across restarts.
func (s *Store) seedSlots(ctx context.Context) error {
	for n := 1; n <= s.slotCount; n++ {
		_, err := s.conn.ExecContext(ctx,
			`INSERT INTO slots (number) VALUES (?) ON CONFLICT (number) DO NOTHING`, n)
		if err != nil {
			return fmt.Errorf("failed to seed slot %d: %w", n, err)
		}
	}
	return nil
}

// lockSlot returns the mutex guarding one slot's writes.
func (s *Store) lockSlot(number int) *sync.Mutex {
	mu, _ := s.slotLocks.LoadOrStore(number, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.conn.PingContext(ctx)
}

// Reset clears all bookings and occupancy. Accounts survive.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM bookings`); err != nil {
		return fmt.Errorf("failed to clear bookings: %w", err)
	}
	_, err := s.conn.ExecContext(ctx,
		`UPDATE slots SET occupied = FALSE, user_id = '', registration = '', expiry = NULL`)
	if err != nil {
		return fmt.Errorf("failed to clear slots: %w", err)
	}
	return nil
}

// Close checkpoints the WAL and closes the connection pool.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	// Flush the WAL so a crash between close and next open loses nothing.
	if _, err := s.conn.Exec("CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Checkpoint before close failed")
	}

	return s.conn.Close()
}
