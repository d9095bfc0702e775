package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testTransportConfig() TransportConfig {
	return TransportConfig{
		Name:             "test-transport",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          1 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNewTransportBreaker(t *testing.T) {
	cb := NewTransportBreaker(testTransportConfig())

	if cb == nil {
		t.Fatal("expected circuit breaker, got nil")
	}
	if cb.Name() != "test-transport" {
		t.Errorf("expected name='test-transport', got %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state=Closed, got %v", cb.State())
	}
}

func TestTransportBreaker_Execute_Success(t *testing.T) {
	cb := NewTransportBreaker(testTransportConfig())

	result, err := cb.Execute(func() (any, error) {
		return "ok", nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result='ok', got %v", result)
	}
}

func TestTransportBreaker_TripsOpen(t *testing.T) {
	cb := NewTransportBreaker(testTransportConfig())

	testErr := errors.New("connection refused")
	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (any, error) {
			return nil, testErr
		})
		if err != testErr {
			t.Errorf("request %d: expected test error, got %v", i, err)
		}
	}

	if !cb.IsOpen() {
		t.Fatalf("expected state=Open, got %v", cb.State())
	}

	_, err := cb.Execute(func() (any, error) {
		t.Error("function should not be called when circuit is open")
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
}

func TestTransportBreaker_IsSuccessfulExcludesHealthyErrors(t *testing.T) {
	rateLimited := errors.New("rate limited")
	cfg := testTransportConfig()
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, rateLimited)
	}
	cb := NewTransportBreaker(cfg)

	for i := 0; i < 10; i++ {
		_, err := cb.Execute(func() (any, error) {
			return nil, rateLimited
		})
		if !errors.Is(err, rateLimited) {
			t.Fatalf("request %d: expected rate limit error to pass through, got %v", i, err)
		}
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected state=Closed when errors are classified healthy, got %v", cb.State())
	}
}

func TestTransportBreaker_HalfOpenRecovers(t *testing.T) {
	cfg := testTransportConfig()
	cfg.Timeout = 100 * time.Millisecond
	cb := NewTransportBreaker(cfg)

	testErr := errors.New("gateway unavailable")
	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (any, error) {
			return nil, testErr
		})
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("circuit should be open, got %v", cb.State())
	}

	time.Sleep(150 * time.Millisecond)

	_, err := cb.Execute(func() (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Errorf("expected success in half-open state, got %v", err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected state=Closed after probe success, got %v", cb.State())
	}
}

func TestTransportBreaker_MinRequests(t *testing.T) {
	cfg := testTransportConfig()
	cfg.MinRequests = 10
	cb := NewTransportBreaker(cfg)

	testErr := errors.New("timeout")
	for i := 0; i < 4; i++ {
		_, _ = cb.Execute(func() (any, error) {
			return nil, testErr
		})
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected state=Closed (below MinRequests), got %v", cb.State())
	}
}

func TestGatewayTransportConfig(t *testing.T) {
	cfg := GatewayTransportConfig()

	if cfg.Name != "mcp-gateway" {
		t.Errorf("expected Name='mcp-gateway', got %q", cfg.Name)
	}
	if cfg.MaxRequests != 1 {
		t.Errorf("expected MaxRequests=1, got %d", cfg.MaxRequests)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected Timeout=30s, got %v", cfg.Timeout)
	}
	if cfg.FailureThreshold != 0.8 {
		t.Errorf("expected FailureThreshold=0.8, got %f", cfg.FailureThreshold)
	}
	if cfg.MinRequests != 5 {
		t.Errorf("expected MinRequests=5, got %d", cfg.MinRequests)
	}
}
