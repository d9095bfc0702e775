package circuitbreaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"parliament-monitor/internal/observability/metrics"
)

// ErrCircuitOpen is returned when a batch is short-circuited locally
// without touching the network.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the current state of the batch breaker.
type State int

const (
	// StateClosed is the normal operating state; every batch is admitted.
	StateClosed State = iota

	// StateOpen rejects every batch until the cool-down has elapsed.
	StateOpen

	// StateHalfOpen admits a single probe batch to test recovery.
	StateHalfOpen
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Clock provides the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// StateRecorder receives every state transition.
type StateRecorder interface {
	RecordCircuitState(name, state string)
}

type prometheusRecorder struct{}

func (prometheusRecorder) RecordCircuitState(name, state string) {
	metrics.RecordCircuitState(name, state)
}

// Config holds configuration for the batch breaker.
type Config struct {
	// Name identifies the breaker in logs and metrics.
	// Default: "mcp-fetch"
	Name string

	// FailureThreshold is the number of consecutive failed batches that
	// opens the circuit.
	// Default: 3
	FailureThreshold int

	// CoolDown is how long the circuit stays open before a probe is allowed.
	// Default: 60 seconds
	CoolDown time.Duration

	// Clock provides time abstraction for testing.
	// Default: SystemClock
	Clock Clock

	// Metrics receives state transitions.
	// Default: Prometheus gauges in internal/observability/metrics
	Metrics StateRecorder
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Name:             "mcp-fetch",
		FailureThreshold: 3,
		CoolDown:         60 * time.Second,
	}
}

// Permit is handed out by Acquire when a batch is admitted.
type Permit struct {
	// Probe is true when the holder carries the single half-open probe.
	// The whole batch is judged as the probe.
	Probe bool
}

// Stats is a point-in-time snapshot of the breaker.
type Stats struct {
	State               State
	ConsecutiveFailures int
	NextRetry           time.Time
	ProbeInFlight       bool
}

// Breaker is the process-wide batch breaker shared by every fetch path.
// Construct one per process and pass it to each orchestrator.
//
//	CLOSED --(threshold consecutive failures)--> OPEN
//	OPEN --(cool-down elapsed, first caller)--> HALF_OPEN
//	HALF_OPEN --(RecordSuccess)--> CLOSED
//	HALF_OPEN --(RecordFailure)--> OPEN with a fresh cool-down
//
// All methods are safe for concurrent use.
type Breaker struct {
	cfg Config

	mu                  sync.Mutex
	state               State
	consecutiveFailures int
	nextRetry           time.Time
	probeInFlight       bool
}

// New creates a breaker in the closed state. Zero config fields fall back
// to DefaultConfig.
func New(cfg Config) *Breaker {
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = def.CoolDown
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = prometheusRecorder{}
	}

	b := &Breaker{cfg: cfg, state: StateClosed}
	cfg.Metrics.RecordCircuitState(cfg.Name, StateClosed.String())
	return b
}

// Name returns the configured breaker name.
func (b *Breaker) Name() string {
	return b.cfg.Name
}

// CanRequest reports whether a batch may proceed. Once the cool-down has
// elapsed the first caller moves the breaker to half-open and becomes the
// probe; concurrent callers are refused until the probe is recorded.
func (b *Breaker) CanRequest() bool {
	_, ok := b.Acquire()
	return ok
}

// Acquire is CanRequest that also tells the caller whether it holds the probe.
func (b *Breaker) Acquire() (Permit, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return Permit{}, true
	case StateOpen:
		if b.cfg.Clock.Now().Before(b.nextRetry) {
			return Permit{}, false
		}
		b.transitionTo(StateHalfOpen)
		b.probeInFlight = true
		return Permit{Probe: true}, true
	case StateHalfOpen:
		if b.probeInFlight {
			return Permit{}, false
		}
		b.probeInFlight = true
		return Permit{Probe: true}, true
	}
	return Permit{}, false
}

// RecordSuccess resets the failure counter and closes the circuit from any state.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.probeInFlight = false
	if b.state != StateClosed {
		slog.Info("circuit breaker recovered",
			slog.String("circuit", b.cfg.Name),
			slog.String("from", b.state.String()))
		b.transitionTo(StateClosed)
	}
}

// RecordFailure records one failed batch. A failure while half-open reopens
// the circuit immediately with a fresh cool-down.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Clock.Now()

	if b.state == StateHalfOpen {
		b.probeInFlight = false
		b.nextRetry = now.Add(b.cfg.CoolDown)
		slog.Warn("circuit breaker probe failed",
			slog.String("circuit", b.cfg.Name),
			slog.Time("next_retry", b.nextRetry))
		b.transitionTo(StateOpen)
		return
	}

	b.consecutiveFailures++
	// A late failure from an already open circuit keeps the original cool-down.
	if b.consecutiveFailures >= b.cfg.FailureThreshold && b.state != StateOpen {
		b.nextRetry = now.Add(b.cfg.CoolDown)
		slog.Warn("circuit breaker opened",
			slog.String("circuit", b.cfg.Name),
			slog.Int("consecutive_failures", b.consecutiveFailures),
			slog.Time("next_retry", b.nextRetry))
		b.transitionTo(StateOpen)
	}
}

// State returns the current state without triggering a half-open transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a snapshot of the breaker.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:               b.state,
		ConsecutiveFailures: b.consecutiveFailures,
		NextRetry:           b.nextRetry,
		ProbeInFlight:       b.probeInFlight,
	}
}

// Reset returns the breaker to the closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.consecutiveFailures = 0
	b.probeInFlight = false
	b.nextRetry = time.Time{}
	if b.state != StateClosed {
		b.transitionTo(StateClosed)
	}
}

// transitionTo must be called with mu held.
func (b *Breaker) transitionTo(to State) {
	from := b.state
	b.state = to
	slog.Warn("circuit breaker state changed",
		slog.String("circuit", b.cfg.Name),
		slog.String("from", from.String()),
		slog.String("to", to.String()))
	b.cfg.Metrics.RecordCircuitState(b.cfg.Name, to.String())
}
