package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"parliament-monitor/internal/mcp"
	"parliament-monitor/internal/observability/metrics"
)

// Conn is the connection the controller drives. *mcp.Client implements it.
type Conn interface {
	mcp.ToolCaller
	Connect(ctx context.Context) error
	Connected() bool
	Mode() mcp.Mode
}

// ControllerConfig configures retry and reconnect behaviour.
type ControllerConfig struct {
	// MaxRetries is the retry budget used by CallTool. A call makes at
	// most MaxRetries+1 attempts.
	// Default: 2
	MaxRetries int

	// ReconnectAttempts is how many times Reconnect tries to connect.
	// Default: 3
	ReconnectAttempts int

	// ReconnectDelay is the cool-down between connect attempts.
	// Default: 2 seconds
	ReconnectDelay time.Duration

	// MaxRateLimitWait caps how long a retry honours a gateway back-off.
	// Default: 30 seconds
	MaxRateLimitWait time.Duration

	// Logger is the structured logger for retry diagnostics.
	Logger *slog.Logger
}

// DefaultControllerConfig returns the documented defaults.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		MaxRetries:        2,
		ReconnectAttempts: 3,
		ReconnectDelay:    2 * time.Second,
		MaxRateLimitWait:  30 * time.Second,
	}
}

// Health is a snapshot of the connection counters. It is exported for
// observability and is never consulted for control flow.
type Health struct {
	Mode           mcp.Mode `json:"mode"`
	Connected      bool     `json:"connected"`
	TimeoutCount   int64    `json:"timeout_count"`
	ReconnectCount int64    `json:"reconnect_count"`
}

// Controller wraps tool calls with bounded retry and reconnects the
// channel when it is found disconnected between attempts.
type Controller struct {
	conn   Conn
	cfg    ControllerConfig
	logger *slog.Logger

	reconnecting atomic.Bool
	timeouts     atomic.Int64
	reconnects   atomic.Int64
}

var _ mcp.ToolCaller = (*Controller)(nil)

// NewController creates a controller over conn.
func NewController(conn Conn, cfg ControllerConfig) *Controller {
	def := DefaultControllerConfig()
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = def.ReconnectAttempts
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.MaxRateLimitWait <= 0 {
		cfg.MaxRateLimitWait = def.MaxRateLimitWait
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{conn: conn, cfg: cfg, logger: logger}
}

// CallTool calls req with the configured retry budget.
func (c *Controller) CallTool(ctx context.Context, req mcp.ToolRequest) (*mcp.ToolCallResult, error) {
	return c.CallToolWithRetry(ctx, req, c.cfg.MaxRetries)
}

// CallToolWithRetry makes up to maxRetries+1 attempts. Before each retry
// the connection is checked and, if it is marked disconnected, Reconnect
// runs first; otherwise the retry is immediate. A rate-limited attempt
// waits for the gateway's back-off before the next one.
func (c *Controller) CallToolWithRetry(ctx context.Context, req mcp.ToolRequest, maxRetries int) (*mcp.ToolCallResult, error) {
	tool := req.ToolName()
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 && !c.conn.Connected() {
			c.Reconnect(ctx)
		}

		attempts++
		result, err := c.conn.CallTool(ctx, req)
		if err == nil {
			if attempt > 0 {
				c.logger.Info("tool call succeeded after retry",
					slog.String("tool", tool),
					slog.Int("attempt", attempt+1))
			}
			return result, nil
		}
		lastErr = err

		if IsTimeout(err) {
			c.timeouts.Add(1)
		}

		if !IsRetryable(err) || ctx.Err() != nil || attempt == maxRetries {
			break
		}

		metrics.RecordToolCallRetry(tool, mcp.CallStatus(err))
		c.logger.Warn("tool call failed, retrying",
			slog.String("tool", tool),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1),
			slog.Bool("connected", c.conn.Connected()),
			slog.Any("error", err))

		var rateErr *mcp.RateLimitError
		if errors.As(err, &rateErr) && rateErr.RetryAfter > 0 {
			wait := min(rateErr.RetryAfter, c.cfg.MaxRateLimitWait)
			if err := sleep(ctx, wait); err != nil {
				break
			}
		}
	}

	return nil, fmt.Errorf("%s failed after %d attempt(s): %w", tool, attempts, lastErr)
}

// Reconnect tries to re-establish the channel. Only one reconnect runs at
// a time; concurrent callers return immediately. Exhaustion is logged and
// never returned, so the in-flight call fails through its own retry path.
// It reports whether the connection is up afterwards.
func (c *Controller) Reconnect(ctx context.Context) bool {
	if !c.reconnecting.CompareAndSwap(false, true) {
		c.logger.Debug("reconnect already in progress")
		return c.conn.Connected()
	}
	defer c.reconnecting.Store(false)

	c.logger.Info("reconnecting to tool server", slog.String("mode", string(c.conn.Mode())))

	err := WithBackoff(ctx, ReconnectConfig(c.cfg.ReconnectAttempts, c.cfg.ReconnectDelay), func() error {
		if err := c.conn.Connect(ctx); err != nil {
			metrics.RecordReconnect("failure")
			return err
		}
		return nil
	})
	if err != nil {
		metrics.RecordReconnect("exhausted")
		c.logger.Error("reconnect attempts exhausted",
			slog.Int("attempts", c.cfg.ReconnectAttempts),
			slog.Any("error", err))
		return false
	}

	c.reconnects.Add(1)
	metrics.RecordReconnect("success")
	c.logger.Info("reconnected to tool server")
	return true
}

// Health returns the connection counters.
func (c *Controller) Health() Health {
	return Health{
		Mode:           c.conn.Mode(),
		Connected:      c.conn.Connected(),
		TimeoutCount:   c.timeouts.Load(),
		ReconnectCount: c.reconnects.Load(),
	}
}

// Connected reports whether the underlying connection is up.
func (c *Controller) Connected() bool {
	return c.conn.Connected()
}
