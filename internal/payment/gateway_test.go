// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

package payment

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

func TestCheckoutSucceeds(t *testing.T) {
	g := NewGateway(nil)

	receipt, err := g.Checkout(context.Background(), "u1", 150)
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if receipt.Amount != 150 || receipt.Reference == "" {
		t.Errorf("receipt = %+v", receipt)
	}
}

func TestCheckoutDeclinesNonPositiveAmount(t *testing.T) {
	g := NewGateway(nil)

	if _, err := g.Checkout(context.Background(), "u1", 0); !errors.Is(err, ErrDeclined) {
		t.Fatalf("Checkout(0) error = %v, want ErrDeclined", err)
	}
}

func TestRefundRoundTrip(t *testing.T) {
	g := NewGateway(nil)
	ctx := context.Background()

	receipt, err := g.Checkout(ctx, "u1", 100)
	if err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if err := g.Refund(ctx, receipt.Reference, receipt.Amount); err != nil {
		t.Errorf("Refund failed: %v", err)
	}

	if err := g.Refund(ctx, "", 100); err == nil {
		t.Error("Refund without a reference succeeded")
	}
}

// alwaysFail trips the breaker.
type alwaysFail struct{}

func (alwaysFail) Charge(context.Context, string, int) (*Receipt, error) {
	return nil, errors.New("processor down")
}

func (alwaysFail) Refund(context.Context, string, int) error {
	return errors.New("processor down")
}

func TestBreakerOpensUnderSustainedFailure(t *testing.T) {
	g := NewGateway(alwaysFail{})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		_, _ = g.Checkout(ctx, "u1", 100)
	}

	if g.State() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", g.State())
	}

	// Open circuit short-circuits to a decline.
	if _, err := g.Checkout(ctx, "u1", 100); !errors.Is(err, ErrDeclined) {
		t.Fatalf("open-circuit error = %v, want ErrDeclined", err)
	}
}
