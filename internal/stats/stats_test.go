package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndSnapshotCounters(t *testing.T) {
	s := New()
	s.RecordSent()
	s.RecordSent()
	s.RecordReceived(1_000_000)
	s.RecordError()

	snap := s.Snapshot()
	assert.Equal(t, uint64(2), snap.SentCount)
	assert.Equal(t, uint64(1), snap.ReceivedCount)
	assert.Equal(t, uint64(1), snap.ErrorCount)
	assert.InDelta(t, 1_000_000, snap.LatencyNsP50, 50_000)
}

func TestSnapshotMonotonicCounters(t *testing.T) {
	s := New()
	s.RecordSent()
	first := s.Snapshot()
	s.RecordSent()
	second := s.Snapshot()
	assert.GreaterOrEqual(t, second.SentCount, first.SentCount)
}

func TestSnapshotSinceLastResets(t *testing.T) {
	s := New()
	s.RecordSent()
	_ = s.Snapshot()
	time.Sleep(5 * time.Millisecond)
	second := s.Snapshot()
	assert.Greater(t, second.SinceLast, time.Duration(0))
	assert.Less(t, second.SinceLast, time.Second)
}

func TestCSVHeaderColumnCount(t *testing.T) {
	cols := strings.Split(CSVHeader, ",")
	require.Len(t, cols, 12)
}

func TestToCSVRowColumnCount(t *testing.T) {
	s := New()
	s.RecordSent()
	s.RecordReceived(500)
	row := s.Snapshot().ToCSVRow()
	cols := strings.Split(row, ",")
	assert.Len(t, cols, 12)
}

func TestResetClearsCounters(t *testing.T) {
	s := New()
	s.RecordSent()
	s.RecordReceived(100)
	s.RecordError()
	s.Reset()
	snap := s.Snapshot()
	assert.Zero(t, snap.SentCount)
	assert.Zero(t, snap.ReceivedCount)
	assert.Zero(t, snap.ErrorCount)
}

func TestLatencyClampedIntoHistogramRange(t *testing.T) {
	s := New()
	s.RecordReceived(-5)
	s.RecordReceived(histogramMaxValue + 1000)
	snap := s.Snapshot()
	assert.Equal(t, uint64(2), snap.ReceivedCount)
	assert.GreaterOrEqual(t, snap.LatencyNsMin, int64(histogramMinValue))
}

func TestRecordReceivedBatchMatchesPerSample(t *testing.T) {
	batched := New()
	batched.RecordReceivedBatch([]int64{100, 200, 300})
	snap := batched.Snapshot()
	assert.Equal(t, uint64(3), snap.ReceivedCount)
	assert.InDelta(t, 200, snap.LatencyNsP50, 50)

	perSample := New()
	perSample.RecordReceived(100)
	perSample.RecordReceived(200)
	perSample.RecordReceived(300)
	other := perSample.Snapshot()
	assert.Equal(t, other.ReceivedCount, snap.ReceivedCount)
}

func TestRecordReceivedBatchEmptyIsNoop(t *testing.T) {
	s := New()
	s.RecordReceivedBatch(nil)
	snap := s.Snapshot()
	assert.Zero(t, snap.ReceivedCount)
}
