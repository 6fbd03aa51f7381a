// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"errors"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/slotward/slotward/internal/auth"
	"github.com/slotward/slotward/internal/booking"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/store"
)

type bookRequest struct {
	SlotID       int    `json:"slot_id" validate:"required,min=1"`
	Hours        int    `json:"hours" validate:"required,min=1"`
	Registration string `json:"registration_number" validate:"required,min=2,max=20"`
}

type cancelRequest struct {
	SlotNumber int `json:"slot_number" validate:"required,min=1"`
}

// handleListSlots returns every slot with its occupancy, plus the
// availability counters the board view renders.
func (h *Handler) handleListSlots(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	slots, err := h.store.ListSlots(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list slots", err)
		return
	}
	available := 0
	for _, s := range slots {
		if !s.Occupied {
			available++
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"slots":     slots,
		"available": available,
		"booked":    len(slots) - available,
		"total":     len(slots),
		"rates":     booking.Rates(),
	}, started)
}

// handleBook reserves a slot for the authenticated user.
func (h *Handler) handleBook(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req bookRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	userName := claims.Email
	if user, err := h.store.GetUserByID(r.Context(), claims.UserID); err == nil {
		userName = user.Name
	}

	b, err := h.bookings.Book(r.Context(), claims.UserID, userName, req.Registration, req.SlotID, req.Hours)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, b, started)
	case errors.Is(err, store.ErrInvalidDuration):
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "no rate for the requested duration", nil)
	case errors.Is(err, store.ErrSlotUnknown):
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "slot does not exist", nil)
	case errors.Is(err, store.ErrSlotUnavailable):
		respondError(w, http.StatusConflict, models.ErrCodeSlotUnavailable, "slot is already occupied", nil)
	default:
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to book slot", err)
	}
}

// handleCancel resolves the caller's active booking on a slot.
func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req cancelRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	claims := auth.ClaimsFromContext(r.Context())
	b, err := h.bookings.Cancel(r.Context(), claims.UserID, req.SlotNumber)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, b, started)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, models.ErrCodeNotFound, "no active booking on this slot", nil)
	case errors.Is(err, store.ErrAlreadyResolved):
		respondError(w, http.StatusConflict, models.ErrCodeAlreadyResolved, "booking was already resolved", nil)
	default:
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to cancel booking", err)
	}
}

// handleMyBookings returns the caller's booking history, newest first.
func (h *Handler) handleMyBookings(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	claims := auth.ClaimsFromContext(r.Context())
	bookings, err := h.store.ListBookingsByUser(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list bookings", err)
		return
	}
	respondJSON(w, http.StatusOK, bookings, started)
}

// handleHistory returns recent ledger entries across all users.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	limit := h.cfg.API.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := parseIntParam(raw)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "limit must be a positive integer", err)
			return
		}
		if n > h.cfg.API.MaxPageSize {
			n = h.cfg.API.MaxPageSize
		}
		limit = n
	}

	bookings, err := h.store.ListBookings(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list history", err)
		return
	}
	respondJSON(w, http.StatusOK, bookings, started)
}

// parkingLocations is the static lot directory served by the nearby
// lookup. A real deployment would load these from the store.
var parkingLocations = []models.Location{
	{ID: "central", Name: "Central Lot", Address: "1 Market Square", Latitude: 51.5074, Longitude: -0.1278, Slots: 20},
	{ID: "riverside", Name: "Riverside Garage", Address: "14 Embankment Road", Latitude: 51.5033, Longitude: -0.1196, Slots: 35},
	{ID: "north-gate", Name: "North Gate Lot", Address: "88 Station Approach", Latitude: 51.5310, Longitude: -0.1233, Slots: 12},
}

// liveLocationID marks the directory entry backed by the slot store.
// The other entries are static placeholders with no live occupancy.
const liveLocationID = "central"

// handleLocations returns the lot directory with current availability,
// sorted by distance when coordinates are given.
func (h *Handler) handleLocations(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	rawLat := r.URL.Query().Get("lat")
	rawLng := r.URL.Query().Get("lng")
	if (rawLat == "") != (rawLng == "") {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "lat and lng must be given together", nil)
		return
	}

	var lat, lng float64
	withDistance := rawLat != ""
	if withDistance {
		var err error
		lat, err = parseFloatParam(rawLat)
		if err != nil {
			respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "lat must be a number", err)
			return
		}
		lng, err = parseFloatParam(rawLng)
		if err != nil {
			respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "lng must be a number", err)
			return
		}
	}

	slots, err := h.store.ListSlots(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, models.ErrCodeDatabase, "failed to list slots", err)
		return
	}
	free := 0
	for _, s := range slots {
		if !s.Occupied {
			free++
		}
	}

	type locationView struct {
		models.Location
		Available  int      `json:"available"`
		DistanceKM *float64 `json:"distance_km,omitempty"`
	}

	out := make([]locationView, 0, len(parkingLocations))
	for _, loc := range parkingLocations {
		view := locationView{Location: loc, Available: loc.Slots}
		if loc.ID == liveLocationID {
			view.Slots = len(slots)
			view.Available = free
		}
		if withDistance {
			d := haversineKM(lat, lng, loc.Latitude, loc.Longitude)
			view.DistanceKM = &d
		}
		out = append(out, view)
	}
	if withDistance {
		sort.Slice(out, func(i, j int) bool { return *out[i].DistanceKM < *out[j].DistanceKM })
	}

	respondJSON(w, http.StatusOK, out, started)
}

// haversineKM returns the great-circle distance between two points.
func haversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKM = 6371.0
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
