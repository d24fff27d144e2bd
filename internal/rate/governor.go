// Package rate implements the token-bucket rate governor used to pace
// publish and request loops. It runs on a fixed internal tick rather than
// sleeping for a computed inter-message interval, so it tracks a target
// rate without drifting under scheduling jitter.
package rate

import (
	"sync"
	"time"
)

const (
	minTicksPerSecond = 1
	maxTicksPerSecond = 100

	// fracScale is the Q24.8 fixed-point scale used to accumulate
	// fractional tokens-per-tick without floating point drift.
	fracScale = 256
)

// Governor paces a loop to a target message rate using a token bucket
// refilled on a fixed internal tick. A nil or zero-rate Governor is a
// no-op: Wait returns immediately.
type Governor struct {
	mu sync.Mutex

	targetRate float64
	enabled    bool

	ticksPerSecond int
	tickInterval   time.Duration

	// tokens is held in Q24.8 fixed point: the integer token count is
	// tokens/fracScale.
	tokens    int64
	maxTokens int64

	lastTick time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New builds a Governor targeting ratePerSecond messages/sec. A
// ratePerSecond <= 0 disables the governor entirely (Wait is a no-op).
func New(ratePerSecond float64) *Governor {
	g := &Governor{targetRate: ratePerSecond}
	if ratePerSecond <= 0 {
		return g
	}
	g.enabled = true

	ticks := int(ratePerSecond)
	if ticks < minTicksPerSecond {
		ticks = minTicksPerSecond
	}
	if ticks > maxTicksPerSecond {
		ticks = maxTicksPerSecond
	}
	g.ticksPerSecond = ticks
	g.tickInterval = time.Second / time.Duration(ticks)

	quotaPerTick := ratePerSecond / float64(ticks)
	intQuota := int64(quotaPerTick)
	g.maxTokens = intQuota * 10 * fracScale
	if g.maxTokens < fracScale {
		g.maxTokens = fracScale
	}
	// Seed with exactly one token so the first call to Wait never blocks.
	g.tokens = fracScale
	g.lastTick = time.Now()
	return g
}

// Wait blocks until a token is available, then consumes one. It returns
// immediately for a disabled governor.
func (g *Governor) Wait() {
	if g == nil || !g.enabled {
		return
	}
	for {
		g.mu.Lock()
		g.refillLocked()
		if g.tokens >= fracScale {
			g.tokens -= fracScale
			g.mu.Unlock()
			return
		}
		wait := g.tickInterval
		g.mu.Unlock()
		time.Sleep(wait)
	}
}

// refillLocked adds tokens for every tick interval elapsed since the last
// refill, in Q24.8 fixed point, using the configured per-tick quota.
func (g *Governor) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(g.lastTick)
	if elapsed < g.tickInterval {
		return
	}
	ticksElapsed := int64(elapsed / g.tickInterval)
	if ticksElapsed <= 0 {
		return
	}
	quotaPerTickFrac := int64((g.targetRate / float64(g.ticksPerSecond)) * fracScale)
	if quotaPerTickFrac < 1 {
		quotaPerTickFrac = 1
	}
	g.tokens += ticksElapsed * quotaPerTickFrac
	if g.tokens > g.maxTokens {
		g.tokens = g.maxTokens
	}
	g.lastTick = g.lastTick.Add(time.Duration(ticksElapsed) * g.tickInterval)
}

// Enabled reports whether this governor paces at all.
func (g *Governor) Enabled() bool {
	return g != nil && g.enabled
}
