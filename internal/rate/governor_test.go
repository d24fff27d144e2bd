package rate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisabledGovernorNeverBlocks(t *testing.T) {
	g := New(0)
	assert.False(t, g.Enabled())
	start := time.Now()
	for i := 0; i < 1000; i++ {
		g.Wait()
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestGovernorSeededWithOneToken(t *testing.T) {
	g := New(10)
	start := time.Now()
	g.Wait()
	assert.Less(t, time.Since(start), 20*time.Millisecond)
}

func TestGovernorApproximatesTargetRate(t *testing.T) {
	const rate = 50.0
	g := New(rate)
	start := time.Now()
	n := 0
	for time.Since(start) < 500*time.Millisecond {
		g.Wait()
		n++
	}
	elapsed := time.Since(start).Seconds()
	observed := float64(n) / elapsed
	assert.InDelta(t, rate, observed, rate*0.5)
}

func TestTicksPerSecondClamped(t *testing.T) {
	low := New(0.01)
	assert.Equal(t, minTicksPerSecond, low.ticksPerSecond)

	high := New(10_000)
	assert.Equal(t, maxTicksPerSecond, high.ticksPerSecond)
}
