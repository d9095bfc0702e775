// Package retry provides bounded retry for tool calls and backoff helpers
// for re-establishing the connection to the tool server.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"syscall"
	"time"

	"parliament-monitor/internal/mcp"
)

// Config holds the configuration for backoff loops.
type Config struct {
	// MaxAttempts is the maximum number of attempts
	MaxAttempts int

	// InitialDelay is the delay before the second attempt
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between attempts
	MaxDelay time.Duration

	// Multiplier is the multiplier for exponential backoff
	Multiplier float64

	// JitterFraction is the fraction of delay to add as random jitter (0.0 to 1.0)
	JitterFraction float64
}

// DefaultConfig returns a default backoff configuration.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   1 * time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// ReconnectConfig returns the backoff used between connect attempts.
// The delay stays at the configured cool-down instead of growing, since a
// respawned process or fresh gateway session either works or does not.
func ReconnectConfig(attempts int, coolDown time.Duration) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   coolDown,
		MaxDelay:       coolDown,
		Multiplier:     1.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff executes fn until it succeeds, returns a non-retryable
// error, or MaxAttempts is reached. It returns the last error.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()

		if lastErr == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return nil
		}

		if !IsRetryable(lastErr) {
			slog.Warn("non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		if err := sleep(ctx, delay); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		delay = addJitter(delay, cfg.JitterFraction)
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

// IsRetryable determines if an error is worth another attempt. Caller
// cancellation and malformed requests are final; everything else coming
// back from the tool server may be transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, mcp.ErrParamsNotObject) || errors.Is(err, mcp.ErrMissingArgument) {
		return false
	}

	return true
}

// IsTimeout reports whether err is timeout-like. Only typed errors are
// consulted, never message text.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, mcp.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// addJitter adds random jitter to a duration to prevent thundering herd.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- Using math/rand is acceptable for jitter calculation.
	// Cryptographic randomness is not required for retry backoff jitter.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
