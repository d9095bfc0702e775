package mcp

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for protocol client operations.
var (
	// ErrNotConnected is returned when a request is issued before a channel
	// exists or after it was torn down.
	ErrNotConnected = errors.New("mcp client not connected")

	// ErrDisconnected fails requests that were in flight when the channel
	// went away (process exit, explicit disconnect).
	ErrDisconnected = errors.New("mcp connection closed")

	// ErrParamsNotObject is a type error: the protocol requires a keyed
	// argument object, never an array.
	ErrParamsNotObject = errors.New("mcp params must be an object, not an array")

	// ErrMissingArgument indicates a required tool argument was blank.
	ErrMissingArgument = errors.New("required tool argument is blank")

	// ErrSessionExpired matches SessionExpiredError. The caller must
	// reconnect before retrying.
	ErrSessionExpired = errors.New("mcp gateway session expired")

	// ErrRateLimited matches RateLimitError.
	ErrRateLimited = errors.New("mcp gateway rate limited")

	// ErrNoMessage is returned when a gateway body carried no JSON-RPC
	// response at all.
	ErrNoMessage = errors.New("gateway response carried no json-rpc message")

	// ErrTimeout matches TimeoutError.
	ErrTimeout = errors.New("mcp request timed out")
)

// TimeoutError is returned when a request's deadline expires before the
// peer answers. It replaces guessing from error text.
type TimeoutError struct {
	Method string
	ID     int64
	After  time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.After > 0 {
		return fmt.Sprintf("mcp request %d (%s) timed out after %s", e.ID, e.Method, e.After)
	}
	return fmt.Sprintf("mcp request %d (%s) timed out", e.ID, e.Method)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Timeout lets TimeoutError satisfy net.Error-style checks.
func (e *TimeoutError) Timeout() bool { return true }

// RateLimitError is returned for HTTP 429. RetryAfter carries the delay the
// gateway asked for.
type RateLimitError struct {
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("mcp gateway rate limited, retry after %s", e.RetryAfter)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// SessionExpiredError is returned for HTTP 401.
type SessionExpiredError struct {
	Message string
}

// Error implements the error interface.
func (e *SessionExpiredError) Error() string {
	if e.Message == "" {
		return ErrSessionExpired.Error()
	}
	return fmt.Sprintf("%s: %s", ErrSessionExpired.Error(), e.Message)
}

// Is reports whether target is ErrSessionExpired.
func (e *SessionExpiredError) Is(target error) bool { return target == ErrSessionExpired }

// HTTPStatusError represents any other non-success gateway status.
type HTTPStatusError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("mcp gateway returned HTTP %d: %s", e.StatusCode, e.Message)
}

// ToolError is returned when the server answered tools/call with isError.
type ToolError struct {
	Tool    string
	Message string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s returned error: %s", e.Tool, e.Message)
}
