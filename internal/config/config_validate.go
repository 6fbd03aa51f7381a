// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package config

import (
	"fmt"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true, "fatal": true, "panic": true,
}

var validLogFormats = map[string]bool{"json": true, "console": true}

// placeholderPatterns are secret values that must never ship.
var placeholderPatterns = []string{
	"changeme", "change-me", "your-secret", "example", "placeholder", "secret123",
}

// Validate checks the configuration for internal consistency. Error
// messages name the environment variable that fixes the problem.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateParking(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout < time.Second || c.Server.Timeout > 5*time.Minute {
		return fmt.Errorf("SERVER_TIMEOUT must be between 1s and 5m, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateParking() error {
	if c.Parking.SlotCount < 1 || c.Parking.SlotCount > 10000 {
		return fmt.Errorf("PARKING_SLOT_COUNT must be between 1 and 10000, got %d", c.Parking.SlotCount)
	}
	if c.Parking.SweepInterval < 100*time.Millisecond || c.Parking.SweepInterval > time.Minute {
		return fmt.Errorf("SWEEP_INTERVAL must be between 100ms and 1m, got %s", c.Parking.SweepInterval)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := c.validateJWTSecret(); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWin < time.Second || c.Security.RateLimitWin > time.Hour {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between 1s and 1h, got %s", c.Security.RateLimitWin)
	}
	return nil
}

func (c *Config) validateJWTSecret() error {
	secret := c.Security.JWTSecret
	if secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security, got %d", len(secret))
	}
	if containsPlaceholder(secret) {
		return fmt.Errorf("JWT_SECRET appears to be a placeholder value; set a real secret")
	}
	return nil
}

func (c *Config) validateCORS() error {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" && c.IsProduction() {
			return fmt.Errorf("CORS_ORIGINS must not contain a wildcard in production")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, got %q", c.Logging.Level)
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func containsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
