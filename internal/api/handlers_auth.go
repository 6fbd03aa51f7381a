// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/slotward/slotward/internal/auth"
	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Vehicle  string `json:"vehicle" validate:"omitempty,max=20"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type profileUpdateRequest struct {
	Name    string `json:"name" validate:"omitempty,min=2,max=100"`
	Phone   string `json:"phone" validate:"omitempty,max=20"`
	Vehicle string `json:"vehicle" validate:"omitempty,max=20"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// handleRegister creates an account and returns a session token.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "invalid password", err)
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         req.Name,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Phone:        req.Phone,
		Vehicle:      req.Vehicle,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			respondError(w, http.StatusConflict, models.ErrCodeConflict, "email already registered", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to create account", err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to issue token", err)
		return
	}

	logging.Info().Str("user_id", user.ID).Msg("Account registered")
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user}, started)
}

// handleLogin verifies credentials and returns a session token. Bad
// email and bad password return the same message.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		logging.Debug().Str("email", sanitizeLogValue(req.Email)).Msg("Login rejected")
		respondError(w, http.StatusUnauthorized, models.ErrCodeAuthentication, "invalid email or password", nil)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to issue token", err)
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user}, started)
}

// handleGetProfile returns the authenticated user's account.
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	claims := auth.ClaimsFromContext(r.Context())
	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "account not found", err)
		return
	}
	respondJSON(w, http.StatusOK, user, started)
}

// handleUpdateProfile updates mutable profile fields.
func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req profileUpdateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	if err := h.store.UpdateUserProfile(r.Context(), claims.UserID, req.Name, req.Phone, req.Vehicle); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "account not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to update profile", err)
		return
	}

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to load profile", err)
		return
	}
	respondJSON(w, http.StatusOK, user, started)
}
