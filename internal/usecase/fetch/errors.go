// Package fetch implements the fan-out orchestrator that gathers every
// data slice one output needs from the tool server. It consults the shared
// circuit breaker, waits for every call in a batch to settle, and turns
// partial failures into a complete payload backed by fallback data.
package fetch

import "errors"

// Sentinel errors for fetch use case operations.
var (
	// ErrUnknownOutput indicates that no fetch plan exists for the output.
	ErrUnknownOutput = errors.New("no fetch plan for output")

	// ErrInvalidWindow indicates that the date window is empty or reversed.
	ErrInvalidWindow = errors.New("invalid date window")

	// ErrUnparseablePayload indicates that a tool answered with text that
	// is not the expected JSON shape. It never escapes Fetch; the slice
	// falls back instead.
	ErrUnparseablePayload = errors.New("unparseable tool payload")
)
