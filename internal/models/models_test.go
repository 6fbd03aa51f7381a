// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package models

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserJSONNeverExposesPasswordHash(t *testing.T) {
	u := User{
		ID:           "u1",
		Email:        "one@example.com",
		Name:         "User One",
		PasswordHash: "$2a$12$secret",
		Role:         RoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	body, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "secret")
	assert.NotContains(t, string(body), "password")
}

func TestSlotOmitsOccupantFieldsWhenFree(t *testing.T) {
	body, err := json.Marshal(Slot{Number: 3})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.NotContains(t, decoded, "user_id")
	assert.NotContains(t, decoded, "expiry_time")
	assert.Equal(t, false, decoded["occupied"])
}

func TestAPIResponseEnvelope(t *testing.T) {
	resp := APIResponse{
		Status: "error",
		Error:  &APIError{Code: ErrCodeSlotUnavailable, Message: "slot is already occupied"},
	}

	body, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"code":"SLOT_UNAVAILABLE"`)
	assert.NotContains(t, string(body), `"data"`)
}
