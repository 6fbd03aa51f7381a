// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package config loads and validates server configuration from
// defaults, an optional YAML file, and environment variables, in that
// order of precedence.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Parking  ParkingConfig  `koanf:"parking"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	API      APIConfig      `koanf:"api"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// DatabaseConfig controls the DuckDB store. Path "memory" selects the
// in-memory store instead.
type DatabaseConfig struct {
	Path         string `koanf:"path"`
	MaxMemory    string `koanf:"max_memory"`
	Threads      int    `koanf:"threads"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
}

// ParkingConfig controls the lot layout and the expiry sweeper.
type ParkingConfig struct {
	SlotCount     int           `koanf:"slot_count"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// SecurityConfig controls authentication and rate limiting.
type SecurityConfig struct {
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	AdminEmail     string        `koanf:"admin_email"`
	AdminPassword  string        `koanf:"admin_password"`
	CORSOrigins    []string      `koanf:"cors_origins"`
	RateLimitReqs  int           `koanf:"rate_limit_requests"`
	RateLimitWin   time.Duration `koanf:"rate_limit_window"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// APIConfig controls response paging.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// UseMemoryStore reports whether the in-memory store is selected.
func (c *Config) UseMemoryStore() bool {
	return c.Database.Path == "" || c.Database.Path == "memory"
}
