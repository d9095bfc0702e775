package mcp

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer spaces outgoing gateway requests with a token bucket so a batch
// fan-out does not arrive at the relay as one burst.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing requestsPerSecond sustained and burst
// requests at once. A non-positive rate disables pacing.
//
// Example:
//
//	pacer := NewPacer(5.0, 5) // 5 req/s, fan-out of 5 goes out at once
func NewPacer(requestsPerSecond float64, burst int) *Pacer {
	if requestsPerSecond <= 0 {
		return &Pacer{}
	}
	if burst <= 0 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available or the context is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Enabled reports whether the pacer limits anything.
func (p *Pacer) Enabled() bool {
	return p != nil && p.limiter != nil
}
