// Slotward - Parking Slot Reservation and Management Server
// Copyright 2026 Slotward Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slotward/slotward

// Package metrics defines the Prometheus instrumentation for the HTTP
// surface, the store, the booking lifecycle, and the payment circuit
// breaker. All collectors register through promauto at init time.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APIRequestDuration tracks HTTP request latency.
	// Labels: method, path, status
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slotward_api_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path", "status"})

	// APIRequestsTotal counts HTTP requests.
	// Labels: method, path, status
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotward_api_requests_total",
		Help: "Total HTTP requests served",
	}, []string{"method", "path", "status"})

	// ActiveRequests gauges in-flight HTTP requests.
	ActiveRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotward_api_active_requests",
		Help: "Currently in-flight HTTP requests",
	})

	// DBQueryDuration tracks store query latency.
	// Labels: operation, status
	DBQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slotward_db_query_duration_seconds",
		Help:    "Store query duration in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"operation", "status"})

	// BookingsTotal counts booking lifecycle events.
	// Labels: event (created, cancelled, released, expired, declined)
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotward_bookings_total",
		Help: "Booking lifecycle events",
	}, []string{"event"})

	// SlotsOccupied gauges currently occupied slots.
	SlotsOccupied = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotward_slots_occupied",
		Help: "Currently occupied parking slots",
	})

	// SweepsTotal counts sweeper passes.
	// Labels: status (ok, error)
	SweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotward_sweeps_total",
		Help: "Expiry sweeper passes",
	}, []string{"status"})

	// SweptBookingsTotal counts bookings expired by the sweeper.
	SweptBookingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotward_swept_bookings_total",
		Help: "Bookings expired by the sweeper",
	})

	// WebSocketClients gauges connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotward_websocket_clients",
		Help: "Currently connected WebSocket clients",
	})

	// CircuitBreakerState reports payment breaker state.
	// 0 = closed, 1 = half-open, 2 = open
	// Labels: name
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slotward_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	// CircuitBreakerRequests counts breaker-mediated calls.
	// Labels: name, result (success, failure, rejected)
	CircuitBreakerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotward_circuit_breaker_requests_total",
		Help: "Requests through the circuit breaker",
	}, []string{"name", "result"})
)

// RecordDBQuery records one store query observation.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueryDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, path, status string, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// TrackActiveRequest marks one request in flight and returns the
// corresponding decrement.
func TrackActiveRequest() func() {
	ActiveRequests.Inc()
	return ActiveRequests.Dec
}
