package timebase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonotonicIncrease(t *testing.T) {
	a := NowUnixNanoEstimate()
	time.Sleep(2 * time.Millisecond)
	b := NowUnixNanoEstimate()
	assert.Greater(t, b, a)
}

func TestCloseToWallClock(t *testing.T) {
	got := NowUnixNanoEstimate()
	want := uint64(time.Now().UnixNano())
	diff := int64(want) - int64(got)
	if diff < 0 {
		diff = -diff
	}
	assert.Less(t, diff, int64(time.Second))
}
