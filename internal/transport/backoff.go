package transport

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ReconnectLimiter throttles how often an adapter may attempt to
// reconnect after a disconnection, independent of the core rate.Governor
// that paces message sends — this is infrastructure self-protection, not
// the workload being measured, so it is built on golang.org/x/time/rate's
// continuous-time token bucket rather than the harness's own fixed-tick
// governor.
type ReconnectLimiter struct {
	limiter *rate.Limiter
}

// NewReconnectLimiter allows up to burst reconnect attempts immediately,
// refilling at one token every 1/attemptsPerSecond.
func NewReconnectLimiter(attemptsPerSecond float64, burst int) *ReconnectLimiter {
	return &ReconnectLimiter{limiter: rate.NewLimiter(rate.Limit(attemptsPerSecond), burst)}
}

// Allow reports whether a reconnect attempt may proceed right now.
func (r *ReconnectLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a reconnect attempt is permitted or ctx is done.
func (r *ReconnectLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("transport: reconnect throttled: %w", err)
	}
	return nil
}
