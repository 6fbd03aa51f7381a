// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package payment provides the checkout gateway. The upstream
// processor is stubbed; the circuit breaker around it is real, so a
// flapping processor degrades to fast declines instead of piling up
// blocked requests.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/slotward/slotward/internal/logging"
	"github.com/slotward/slotward/internal/metrics"
)

// ErrDeclined is returned when the processor refuses the charge or
// the circuit is open.
var ErrDeclined = errors.New("payment declined")

// Receipt is the result of a successful charge.
type Receipt struct {
	Reference string    `json:"reference"`
	Amount    int       `json:"amount"`
	ChargedAt time.Time `json:"charged_at"`
}

// Processor performs the actual charge. The production implementation
// would call out to a provider; the default is an in-process stub.
type Processor interface {
	Charge(ctx context.Context, userID string, amount int) (*Receipt, error)
	Refund(ctx context.Context, reference string, amount int) error
}

// StubProcessor approves every well-formed charge locally.
type StubProcessor struct{}

// Charge implements Processor.
func (StubProcessor) Charge(_ context.Context, _ string, amount int) (*Receipt, error) {
	if amount <= 0 {
		return nil, ErrDeclined
	}
	return &Receipt{
		Reference: uuid.NewString(),
		Amount:    amount,
		ChargedAt: time.Now().UTC(),
	}, nil
}

// Refund implements Processor.
func (StubProcessor) Refund(_ context.Context, reference string, _ int) error {
	if reference == "" {
		return errors.New("refund requires a charge reference")
	}
	return nil
}

// Gateway wraps a Processor with circuit breaker protection.
type Gateway struct {
	processor Processor
	cb        *gobreaker.CircuitBreaker[*Receipt]
	name      string
}

// NewGateway creates a gateway around the processor.
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 30 second timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewGateway(processor Processor) *Gateway {
	if processor == nil {
		processor = StubProcessor{}
	}
	cbName := "payment-processor"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[*Receipt](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] Payment state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Gateway{processor: processor, cb: cb, name: cbName}
}

// Checkout charges the user. Returns ErrDeclined for refused charges
// and for requests rejected by an open circuit.
func (g *Gateway) Checkout(ctx context.Context, userID string, amount int) (*Receipt, error) {
	receipt, err := g.cb.Execute(func() (*Receipt, error) {
		return g.processor.Charge(ctx, userID, amount)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(g.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Payment request rejected")
			return nil, ErrDeclined
		}
		metrics.CircuitBreakerRequests.WithLabelValues(g.name, "failure").Inc()
		if errors.Is(err, ErrDeclined) {
			return nil, err
		}
		return nil, fmt.Errorf("payment failed: %w", err)
	}

	metrics.CircuitBreakerRequests.WithLabelValues(g.name, "success").Inc()
	return receipt, nil
}

// Refund reverses a prior charge. Refunds bypass the breaker: a
// compensating reversal must go out even while new charges are being
// rejected.
func (g *Gateway) Refund(ctx context.Context, reference string, amount int) error {
	if err := g.processor.Refund(ctx, reference, amount); err != nil {
		return fmt.Errorf("refund failed: %w", err)
	}
	logging.Info().Str("reference", reference).Int("amount", amount).Msg("Payment refunded")
	return nil
}

// State returns the current circuit breaker state.
func (g *Gateway) State() gobreaker.State {
	return g.cb.State()
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
