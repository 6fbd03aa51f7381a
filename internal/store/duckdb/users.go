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
	"strings"
	"time"

	"github.com/slotward/slotward/internal/metrics"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

const userColumns = `id, email, name, password_hash, role, phone, vehicle, created_at`

// CreateUser inserts an account, or store.ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	start := time.Now()
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.Phone, u.Vehicle, u.CreatedAt.UTC())
	metrics.RecordDBQuery("create_user", time.Since(start), err)
	if err != nil {
		// DuckDB reports unique violations as constraint errors.
		if strings.Contains(strings.ToLower(err.Error()), "constraint") {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns an account by email, or store.ErrNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	metrics.RecordDBQuery("get_user_by_email", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}

// GetUserByID returns an account by ID, or store.ErrNotFound.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	start := time.Now()
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	metrics.RecordDBQuery("get_user_by_id", time.Since(start), err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return u, err
}

// UpdateUserProfile updates mutable profile fields.
func (s *Store) UpdateUserProfile(ctx context.Context, id, name, phone, vehicle string) error {
	start := time.Now()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE users SET name = CASE WHEN ? = '' THEN name ELSE ? END, phone = ?, vehicle = ?
		 WHERE id = ?`,
		name, name, phone, vehicle, id)
	metrics.RecordDBQuery("update_user_profile", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read profile update result: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ListUsers returns every account, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at`)
	metrics.RecordDBQuery("list_users", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// CountUsers returns the number of registered accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	start := time.Now()
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	metrics.RecordDBQuery("count_users", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func scanUser(r rowScanner) (*models.User, error) {
	var u models.User
	err := r.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.Phone, &u.Vehicle, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}
