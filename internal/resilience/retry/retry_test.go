package retry

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"parliament-monitor/internal/mcp"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:    attempts,
		InitialDelay:   time.Millisecond,
		MaxDelay:       5 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return syscall.ECONNREFUSED
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoff_MaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	spawnErr := errors.New("exec: tool server not found")
	err := WithBackoff(context.Background(), fastConfig(4), func() error {
		attempts++
		return spawnErr
	})

	if !errors.Is(err, spawnErr) {
		t.Errorf("expected wrapped spawn error, got %v", err)
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestWithBackoff_NonRetryableError(t *testing.T) {
	attempts := 0
	testErr := fmt.Errorf("committeeId: %w", mcp.ErrMissingArgument)
	err := WithBackoff(context.Background(), fastConfig(3), func() error {
		attempts++
		return testErr
	})

	if err != testErr {
		t.Errorf("expected same error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt (non-retryable), got %d", attempts)
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	cfg := fastConfig(5)
	cfg.InitialDelay = 50 * time.Millisecond
	cfg.MaxDelay = 200 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := WithBackoff(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return &mcp.HTTPStatusError{StatusCode: 502, Message: "Bad Gateway"}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"wrapped canceled", fmt.Errorf("tools/call: %w", context.Canceled), false},
		{"params not object", mcp.ErrParamsNotObject, false},
		{"missing argument", fmt.Errorf("keyword: %w", mcp.ErrMissingArgument), false},
		{"timeout", &mcp.TimeoutError{Method: "tools/call"}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"not connected", mcp.ErrNotConnected, true},
		{"disconnected", mcp.ErrDisconnected, true},
		{"session expired", &mcp.SessionExpiredError{}, true},
		{"rate limited", &mcp.RateLimitError{RetryAfter: time.Second}, true},
		{"rpc error", &mcp.RPCError{Code: -32603, Message: "internal"}, true},
		{"connection refused", syscall.ECONNREFUSED, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"typed timeout", &mcp.TimeoutError{Method: "tools/call", ID: 4}, true},
		{"wrapped typed timeout", fmt.Errorf("get_meps: %w", &mcp.TimeoutError{}), true},
		{"deadline exceeded", fmt.Errorf("HTTP request: %w", context.DeadlineExceeded), true},
		{"etimedout", syscall.ETIMEDOUT, true},
		{"net timeout", fakeNetError{timeout: true}, true},
		{"net non-timeout", fakeNetError{timeout: false}, false},
		{"message mentions timeout", errors.New("upstream timeout while reading"), false},
		{"not connected", mcp.ErrNotConnected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeout(tt.err); got != tt.want {
				t.Errorf("IsTimeout(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 1*time.Second {
		t.Errorf("expected InitialDelay=1s, got %v", cfg.InitialDelay)
	}
	if cfg.Multiplier != 2.0 {
		t.Errorf("expected Multiplier=2.0, got %f", cfg.Multiplier)
	}
}

func TestReconnectConfig(t *testing.T) {
	cfg := ReconnectConfig(4, 3*time.Second)

	if cfg.MaxAttempts != 4 {
		t.Errorf("expected MaxAttempts=4, got %d", cfg.MaxAttempts)
	}
	if cfg.InitialDelay != 3*time.Second || cfg.MaxDelay != 3*time.Second {
		t.Errorf("expected constant 3s delay, got %v..%v", cfg.InitialDelay, cfg.MaxDelay)
	}
}

func TestAddJitter(t *testing.T) {
	duration := 100 * time.Millisecond
	jitterFraction := 0.2

	results := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		result := addJitter(duration, jitterFraction)

		minDuration := duration
		maxDuration := time.Duration(float64(duration) * 1.2)

		if result < minDuration || result > maxDuration {
			t.Errorf("expected result between %v and %v, got %v", minDuration, maxDuration, result)
		}

		results[result] = true
	}

	if len(results) < 2 {
		t.Error("expected jitter to produce varied results")
	}
}

func TestAddJitter_ZeroFraction(t *testing.T) {
	duration := 100 * time.Millisecond
	result := addJitter(duration, 0.0)

	if result != duration {
		t.Errorf("expected no jitter with fraction=0, got %v instead of %v", result, duration)
	}
}
