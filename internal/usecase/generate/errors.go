// Package generate runs one generation pass: for every requested output it
// computes the date window, asks the fetch orchestrator for a payload and
// hands the payload to a Publisher. Outputs are isolated from each other;
// one failing output never stops the rest of the run.
package generate

import "errors"

// Sentinel errors for generation runs.
var (
	// ErrPublish wraps publisher failures.
	ErrPublish = errors.New("publish output")
)
