// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package booking

// rates is the published price table, keyed by whole hours. A duration
// outside this table is declined, never rounded.
var rates = map[int]int{
	1: 50,
	2: 100,
	3: 150,
}

// RateFor returns the price for a duration, or false when the duration
// has no published rate.
func RateFor(hours int) (int, bool) {
	amount, ok := rates[hours]
	return amount, ok
}

// Rates returns a copy of the price table for display.
func Rates() map[int]int {
	out := make(map[int]int, len(rates))
	for h, amount := range rates {
		out[h] = amount
	}
	return out
}
