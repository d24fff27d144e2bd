// Package stats collects throughput, error, and latency measurements for a
// running role and renders point-in-time snapshots for the sink and the
// optional metrics HTTP surface.
package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	histogramMinValue = 1
	histogramMaxValue = 60_000_000_000 // 60s in nanoseconds
	histogramSigFigs  = 3
)

// Stats accumulates counters and a latency histogram across the lifetime of
// a role. All methods are safe for concurrent use.
type Stats struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram

	sent     uint64
	received uint64
	errors   uint64

	start        time.Time
	lastSnapshot time.Time
}

// New builds an empty Stats collector anchored at the current time.
func New() *Stats {
	now := time.Now()
	return &Stats{
		hist:         hdrhistogram.New(histogramMinValue, histogramMaxValue, histogramSigFigs),
		start:        now,
		lastSnapshot: now,
	}
}

// RecordSent increments the sent counter.
func (s *Stats) RecordSent() {
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
}

// RecordReceived increments the received counter and records latencyNs in
// the histogram. Latencies below histogramMinValue or above
// histogramMaxValue are clamped into range rather than dropped.
func (s *Stats) RecordReceived(latencyNs int64) {
	if latencyNs < histogramMinValue {
		latencyNs = histogramMinValue
	}
	if latencyNs > histogramMaxValue {
		latencyNs = histogramMaxValue
	}
	s.mu.Lock()
	s.received++
	_ = s.hist.RecordValue(latencyNs)
	s.mu.Unlock()
}

// RecordReceivedBatch is RecordReceived amortised over len(latenciesNs)
// samples under a single critical section, for callers (the Subscriber's
// batching worker) that already buffer latencies before reporting them.
func (s *Stats) RecordReceivedBatch(latenciesNs []int64) {
	if len(latenciesNs) == 0 {
		return
	}
	s.mu.Lock()
	s.received += uint64(len(latenciesNs))
	for _, lat := range latenciesNs {
		if lat < histogramMinValue {
			lat = histogramMinValue
		}
		if lat > histogramMaxValue {
			lat = histogramMaxValue
		}
		_ = s.hist.RecordValue(lat)
	}
	s.mu.Unlock()
}

// RecordError increments the error counter.
func (s *Stats) RecordError() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}

// Snapshot captures counters and latency quantiles since start and since
// the previous snapshot, then resets the "since last" window.
func (s *Stats) Snapshot() Snapshot {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Timestamp:      now,
		SentCount:      s.sent,
		ReceivedCount:  s.received,
		ErrorCount:     s.errors,
		TotalElapsed:   now.Sub(s.start),
		SinceLast:      now.Sub(s.lastSnapshot),
		LatencyNsP50:   s.hist.ValueAtQuantile(50),
		LatencyNsP95:   s.hist.ValueAtQuantile(95),
		LatencyNsP99:   s.hist.ValueAtQuantile(99),
		LatencyNsMin:   s.hist.Min(),
		LatencyNsMax:   s.hist.Max(),
		LatencyNsMean:  s.hist.Mean(),
	}
	s.lastSnapshot = now
	return snap
}

// Reset clears all counters and the histogram. Not used in normal
// operation; kept for harness composition (e.g. a warm-up phase).
func (s *Stats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent, s.received, s.errors = 0, 0, 0
	s.hist.Reset()
	now := time.Now()
	s.start = now
	s.lastSnapshot = now
}
