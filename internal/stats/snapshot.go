package stats

import (
	"fmt"
	"time"
)

// CSVHeader is the fixed column header written once at the top of every
// CSV output file.
const CSVHeader = "timestamp,sent_count,received_count,error_count,total_throughput,interval_throughput,latency_ns_p50,latency_ns_p95,latency_ns_p99,latency_ns_min,latency_ns_max,latency_ns_mean"

// Snapshot is a point-in-time view of a Stats collector.
type Snapshot struct {
	Timestamp     time.Time
	SentCount     uint64
	ReceivedCount uint64
	ErrorCount    uint64
	TotalElapsed  time.Duration
	SinceLast     time.Duration
	LatencyNsP50  int64
	LatencyNsP95  int64
	LatencyNsP99  int64
	LatencyNsMin  int64
	LatencyNsMax  int64
	LatencyNsMean float64
}

// TotalThroughput is ReceivedCount divided by the total elapsed time, in
// messages/sec. A pure Publisher never calls RecordReceived, so its CSV
// throughput columns are legitimately 0 — callers that want a publisher's
// send rate read SentCount/TotalElapsed directly instead.
func (s Snapshot) TotalThroughput() float64 {
	secs := s.TotalElapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.ReceivedCount) / secs
}

// IntervalThroughput mirrors TotalThroughput but scoped to the window
// since the previous snapshot.
func (s Snapshot) IntervalThroughput() float64 {
	secs := s.SinceLast.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.ReceivedCount) / secs
}

// ToCSVRow renders the snapshot as one CSV data row (no trailing newline).
func (s Snapshot) ToCSVRow() string {
	return fmt.Sprintf("%d,%d,%d,%d,%.2f,%.2f,%d,%d,%d,%d,%d,%.2f",
		s.Timestamp.Unix(),
		s.SentCount,
		s.ReceivedCount,
		s.ErrorCount,
		s.TotalThroughput(),
		s.IntervalThroughput(),
		s.LatencyNsP50,
		s.LatencyNsP95,
		s.LatencyNsP99,
		s.LatencyNsMin,
		s.LatencyNsMax,
		s.LatencyNsMean,
	)
}
