// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/slotward/slotward/internal/auth"
	"github.com/slotward/slotward/internal/booking"
	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/payment"
	"github.com/slotward/slotward/internal/store"
)

type checkoutRequest struct {
	SlotID       int    `json:"slot_id" validate:"required,min=1"`
	Hours        int    `json:"hours" validate:"required,min=1"`
	Registration string `json:"registration_number" validate:"required,min=2,max=20"`
}

// handleCheckout charges the rate for the requested duration, then
// books the slot. A charge that cannot be turned into a booking is
// refunded. Declines return 402.
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if h.gateway == nil {
		respondError(w, http.StatusServiceUnavailable, models.ErrCodePayment, "payments are not configured", nil)
		return
	}

	var req checkoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	amount, ok := booking.RateFor(req.Hours)
	if !ok {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "no rate for the requested duration", nil)
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	receipt, err := h.gateway.Checkout(r.Context(), claims.UserID, amount)
	if err != nil {
		if errors.Is(err, payment.ErrDeclined) {
			respondError(w, http.StatusPaymentRequired, models.ErrCodePayment, "payment declined", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, models.ErrCodePayment, "payment failed", err)
		return
	}

	userName := claims.Email
	if user, err := h.store.GetUserByID(r.Context(), claims.UserID); err == nil {
		userName = user.Name
	}

	b, err := h.bookings.Book(r.Context(), claims.UserID, userName, req.Registration, req.SlotID, req.Hours)
	if err != nil {
		if rerr := h.gateway.Refund(r.Context(), receipt.Reference, receipt.Amount); rerr != nil {
			logging.Error().Err(rerr).Str("reference", receipt.Reference).Msg("Compensating refund failed after booking error")
		}
		switch {
		case errors.Is(err, store.ErrSlotUnknown):
			respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "slot does not exist", nil)
		case errors.Is(err, store.ErrSlotUnavailable):
			respondError(w, http.StatusConflict, models.ErrCodeSlotUnavailable, "slot is already occupied", nil)
		default:
			respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to book slot", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"booking": b,
		"receipt": receipt,
	}, started)
}
