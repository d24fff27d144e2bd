// Package timebase estimates current wall-clock time in nanoseconds using a
// single anchor pair (monotonic instant, wall-clock unix nanos) captured
// once at startup, rather than calling time.Now() on every hot-path send.
// This avoids repeated wall-clock syscalls while still tracking real time
// closely enough for cross-process latency measurement.
package timebase

import (
	"sync"
	"time"
)

var (
	once   sync.Once
	anchor time.Time
	unixNs uint64
)

func init() {
	establish()
}

func establish() {
	once.Do(func() {
		anchor = time.Now()
		unixNs = uint64(anchor.UnixNano())
	})
}

// NowUnixNanoEstimate returns an estimate of the current unix time in
// nanoseconds, derived from the cached anchor plus elapsed monotonic time.
// It saturates at MaxUint64 instead of overflowing.
func NowUnixNanoEstimate() uint64 {
	elapsed := time.Since(anchor)
	if elapsed < 0 {
		return unixNs
	}
	add := uint64(elapsed)
	if add > ^uint64(0)-unixNs {
		return ^uint64(0)
	}
	return unixNs + add
}
