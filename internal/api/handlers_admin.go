// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

// cancellationListLimit caps the admin cancellation feed.
const cancellationListLimit = 20

type approveRefundRequest struct {
	RefundID string `json:"refund_id" validate:"required,uuid"`
	Amount   int    `json:"amount" validate:"required,min=1"`
	UserName string `json:"user_name" validate:"omitempty,max=100"`
}

// handleStats returns the aggregate snapshot together with the ledger
// and account listings the dashboard renders next to it.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	stats, err := h.bookings.Stats(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to aggregate stats", err)
		return
	}
	bookings, err := h.store.ListBookings(r.Context(), "", h.cfg.API.MaxPageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list bookings", err)
		return
	}
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list users", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"stats":    stats,
		"bookings": bookings,
		"users":    users,
	}, started)
}

// handleReleaseSlot forcibly frees a slot. Succeeds whether or not the
// slot was occupied.
func (h *Handler) handleReleaseSlot(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	slotID, err := parseIntParam(chi.URLParam(r, "slotID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "slot ID must be an integer", err)
		return
	}

	if err := h.bookings.ReleaseByAdmin(r.Context(), slotID); err != nil {
		if errors.Is(err, store.ErrSlotUnknown) {
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "slot does not exist", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to release slot", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"slot_number": slotID, "released": true}, started)
}

// handleApproveRefund approves a pending refund. Approving twice
// overwrites the recorded amount.
func (h *Handler) handleApproveRefund(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req approveRefundRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.bookings.ApproveRefund(r.Context(), req.RefundID, req.Amount); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "no cancelled booking matches this refund", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to approve refund", err)
		return
	}

	logging.Info().Str("refund_id", req.RefundID).Str("approved_by", sanitizeLogValue(req.UserName)).Msg("Refund approved by admin")
	respondJSON(w, http.StatusOK, map[string]any{"refund_id": req.RefundID, "amount": req.Amount, "approved": true}, started)
}

// handleAdminBookings returns the full ledger, newest first.
func (h *Handler) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	bookings, err := h.store.ListBookings(r.Context(), r.URL.Query().Get("status"), h.cfg.API.MaxPageSize)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list bookings", err)
		return
	}
	respondJSON(w, http.StatusOK, bookings, started)
}

// handleAdminUsers returns all registered accounts.
func (h *Handler) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list users", err)
		return
	}
	respondJSON(w, http.StatusOK, users, started)
}

// handleAdminCancellations returns the latest cancellations with their
// refund state.
func (h *Handler) handleAdminCancellations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	cancellations, err := h.store.ListBookings(r.Context(), models.BookingCancelled, cancellationListLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list cancellations", err)
		return
	}
	respondJSON(w, http.StatusOK, cancellations, started)
}

// handleAdminReset clears all bookings and occupancy.
func (h *Handler) handleAdminReset(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if err := h.store.Reset(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to reset", err)
		return
	}

	logging.Warn().Msg("Admin reset: all bookings and occupancy cleared")
	respondJSON(w, http.StatusOK, map[string]any{"reset": true}, started)
}
