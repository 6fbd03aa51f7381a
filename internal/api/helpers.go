// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/models"
	"github.com/slotward/slotward/internal/validation"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20 // 1 MB

// sanitizeLogValue strips newlines from user-controlled strings before
// they reach the log, preventing log injection.
func sanitizeLogValue(v string) string {
	v = strings.ReplaceAll(v, "\n", "")
	v = strings.ReplaceAll(v, "\r", "")
	if len(v) > 100 {
		v = v[:100] + "..."
	}
	return v
}

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, data any, started time.Time) {
	resp := models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: &models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	}

	body, err := json.Marshal(resp)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal response")
		respondError(w, http.StatusInternalServerError, models.ErrCodeInternal, "failed to encode response", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", generateETag(body))
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("Failed to write response")
	}
}

// respondError writes an error envelope. The wire message is the
// caller-supplied one; the underlying error goes to the log only.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	respondErrorDetails(w, status, code, message, err, nil)
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, err error, details map[string]any) {
	if err != nil && status >= 500 {
		logging.Error().Err(err).Str("code", code).Msg(sanitizeLogValue(message))
	} else if err != nil {
		logging.Debug().Err(err).Str("code", code).Msg(sanitizeLogValue(message))
	}

	resp := models.APIResponse{
		Status:   "error",
		Metadata: &models.Metadata{Timestamp: time.Now().UTC()},
		Error:    &models.APIError{Code: code, Message: message, Details: details},
	}

	body, merr := json.Marshal(resp)
	if merr != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// decodeAndValidate decodes a JSON body into the tagged struct and
// runs validation. Writes the error response itself and returns false
// on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "invalid request body", err)
		return false
	}

	if err := validation.ValidateStruct(dst); err != nil {
		if verr, ok := err.(*validation.RequestValidationError); ok {
			respondErrorDetails(w, http.StatusBadRequest, models.ErrCodeValidation, verr.Error(), nil, verr.Details())
		} else {
			respondError(w, http.StatusBadRequest, models.ErrCodeValidation, "validation failed", err)
		}
		return false
	}
	return true
}

// generateETag computes an FNV-1a hash of the body.
func generateETag(body []byte) string {
	hash := uint32(2166136261)
	for _, b := range body {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return fmt.Sprintf(`"%08x"`, hash)
}

// parseIntParam parses a URL path or query parameter as an int.
func parseIntParam(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", sanitizeLogValue(value))
	}
	return n, nil
}

// parseFloatParam parses a query parameter as a float64.
func parseFloatParam(value string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", sanitizeLogValue(value))
	}
	return f, nil
}
