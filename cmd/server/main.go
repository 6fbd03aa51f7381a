// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Command server runs the Slotward API server.
//
// Startup order: configuration, logging, store, supervision tree,
// then the HTTP listener. Shutdown is signal-driven; the supervisor
// drains its services before the store is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/slotward/slotward/internal/api"
	"github.com/slotward/slotward/internal/auth"
	"github.com/slotward/slotward/internal/booking"
	"github.com/slotward/slotward/internal/config"
	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/payment"
	"github.com/slotward/slotward/internal/store"
	"github.com/slotward/slotward/internal/store/duckdb"
	"github.com/slotward/slotward/internal/store/memory"
	"github.com/slotward/slotward/internal/supervisor"
	"github.com/slotward/slotward/internal/supervisor/services"
	"github.com/slotward/slotward/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("environment", cfg.Server.Environment).Msg("Starting Slotward")

	st, err := openStore(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := seedAdmin(ctx, cfg, st); err != nil {
		logging.Fatal().Err(err).Msg("Failed to seed admin account")
	}

	// Supervision tree
	slogLogger := logging.NewSlogLogger()
	tree := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())

	hub := websocket.NewHub()
	svc := booking.NewService(st, hub)
	sweeper := booking.NewSweeper(st, hub, cfg.Parking.SweepInterval)
	gateway := payment.NewGateway(nil)

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	authMW := auth.NewMiddleware(jwtManager)

	handler := api.NewHandler(cfg, st, svc, jwtManager, gateway, hub)
	router := api.NewRouter(handler, authMW, api.NewChiMiddleware(cfg.Security.CORSOrigins))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddDataService(sweeper)
	tree.AddAPIService(services.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	// Signal-driven shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Int("slots", cfg.Parking.SlotCount).Msg("Slotward listening")

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor error")
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil {
		for _, entry := range report {
			logging.Warn().Str("service", entry.Name).Msg("Service did not stop cleanly")
		}
	}

	logging.Info().Msg("Slotward stopped")
}

// openStore selects the persistent or in-memory store from config.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.UseMemoryStore() {
		logging.Warn().Msg("Using in-memory store; state is lost on restart")
		return memory.New(cfg.Parking.SlotCount), nil
	}
	return duckdb.New(&cfg.Database, cfg.Parking.SlotCount)
}

// seedAdmin creates the admin account on first start when configured.
func seedAdmin(ctx context.Context, cfg *config.Config, st store.Store) error {
	if cfg.Security.AdminEmail == "" || cfg.Security.AdminPassword == "" {
		logging.Warn().Msg("ADMIN_EMAIL/ADMIN_PASSWORD not set; no admin account seeded")
		return nil
	}

	if _, err := st.GetUserByEmail(ctx, cfg.Security.AdminEmail); err == nil {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Security.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:           uuid.NewString(),
		Email:        cfg.Security.AdminEmail,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := st.CreateUser(ctx, admin); err != nil && !errors.Is(err, store.ErrEmailTaken) {
		return err
	}
	logging.Info().Str("email", cfg.Security.AdminEmail).Msg("Admin account seeded")
	return nil
}
