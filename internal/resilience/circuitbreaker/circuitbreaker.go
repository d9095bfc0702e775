// Package circuitbreaker provides the failure-isolation state machines used
// in front of the tool server.
//
// Two breakers live here. Breaker is the process-wide batch breaker the
// fetch orchestrator consults before every fan-out; it is constructed once
// and injected wherever fetches happen. TransportBreaker wraps
// github.com/sony/gobreaker around individual gateway round trips so a
// flapping relay stops receiving HTTP traffic on its own.
package circuitbreaker

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"parliament-monitor/internal/observability/metrics"
)

// TransportConfig holds the configuration for a transport-level breaker.
type TransportConfig struct {
	// Name is the circuit breaker name for logging and metrics
	Name string

	// MaxRequests is the maximum number of requests allowed in half-open state
	MaxRequests uint32

	// Interval is the cyclic period of the closed state to clear success/failure counts
	Interval time.Duration

	// Timeout is how long to wait in open state before trying again
	Timeout time.Duration

	// FailureThreshold is the failure ratio threshold to trip the circuit
	// For example, 0.8 means 80% failure rate
	FailureThreshold float64

	// MinRequests is the minimum number of requests before calculating failure ratio
	MinRequests uint32

	// IsSuccessful classifies errors that should not count against the
	// transport (for example an HTTP 429 is a healthy answer). Nil means
	// only a nil error is a success.
	IsSuccessful func(err error) bool
}

// GatewayTransportConfig returns configuration for HTTP gateway round trips.
// The gateway is shared infrastructure, so the breaker trips only on a
// sustained failure ratio rather than a short burst.
func GatewayTransportConfig() TransportConfig {
	return TransportConfig{
		Name:             "mcp-gateway",
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// TransportBreaker wraps gobreaker.CircuitBreaker with logging and metrics.
type TransportBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string
}

// NewTransportBreaker creates a new transport breaker with the given configuration.
func NewTransportBreaker(cfg TransportConfig) *TransportBreaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		IsSuccessful: cfg.IsSuccessful,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.RecordCircuitState(name, to.String())
		},
	}

	return &TransportBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs the given function through the circuit breaker.
// If the circuit is open, it returns gobreaker.ErrOpenState immediately.
func (cb *TransportBreaker) Execute(fn func() (any, error)) (any, error) {
	return cb.breaker.Execute(fn)
}

// State returns the current state of the circuit breaker.
func (cb *TransportBreaker) State() gobreaker.State {
	return cb.breaker.State()
}

// Name returns the name of the circuit breaker.
func (cb *TransportBreaker) Name() string {
	return cb.name
}

// IsOpen returns true if the circuit breaker is in the open state.
func (cb *TransportBreaker) IsOpen() bool {
	return cb.breaker.State() == gobreaker.StateOpen
}
