// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file search paths.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order for a config file.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/slotward/config.yaml",
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Path:         "data/slotward.db",
			MaxMemory:    "512MB",
			Threads:      4,
			MaxOpenConns: 8,
			MaxIdleConns: 2,
		},
		Parking: ParkingConfig{
			SlotCount:     20,
			SweepInterval: time.Second,
		},
		Security: SecurityConfig{
			SessionTimeout: 24 * time.Hour,
			CORSOrigins:    []string{"http://localhost:3000"},
			RateLimitReqs:  100,
			RateLimitWin:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		API: APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
	}
}

// envMappings routes environment variables to config keys. Unmapped
// variables are ignored so unrelated environment noise never leaks
// into the configuration.
var envMappings = map[string]string{
	"SERVER_HOST":         "server.host",
	"SERVER_PORT":         "server.port",
	"SERVER_TIMEOUT":      "server.timeout",
	"SERVER_ENVIRONMENT":  "server.environment",
	"DATABASE_PATH":       "database.path",
	"DATABASE_MAX_MEMORY": "database.max_memory",
	"DATABASE_THREADS":    "database.threads",
	"PARKING_SLOT_COUNT":  "parking.slot_count",
	"SWEEP_INTERVAL":      "parking.sweep_interval",
	"JWT_SECRET":          "security.jwt_secret",
	"SESSION_TIMEOUT":     "security.session_timeout",
	"ADMIN_EMAIL":         "security.admin_email",
	"ADMIN_PASSWORD":      "security.admin_password",
	"CORS_ORIGINS":        "security.cors_origins",
	"RATE_LIMIT_REQUESTS": "security.rate_limit_requests",
	"RATE_LIMIT_WINDOW":   "security.rate_limit_window",
	"LOG_LEVEL":           "logging.level",
	"LOG_FORMAT":          "logging.format",
	"LOG_CALLER":          "logging.caller",
}

// Load builds the configuration from defaults, then an optional YAML
// file, then environment variables, and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile returns the first readable config file path, or "".
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps a known environment variable to its config
// key; unknown variables map to "" and are skipped by koanf.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
