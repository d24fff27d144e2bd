package roles

import (
	"context"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/rate"
	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/internal/timebase"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/hpcclab/mq-bench-go/internal/wire"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// PublisherConfig configures RunPublisher.
type PublisherConfig struct {
	Common

	Topic       string
	PayloadSize int
	Rate        float64 // messages/sec; <= 0 disables pacing
}

// RunPublisher generates payloads at the configured rate and publishes
// them to Topic until ctx is cancelled or Duration elapses.
func RunPublisher(ctx context.Context, tr transport.Transport, cfg PublisherConfig) (stats.Snapshot, error) {
	st := cfg.resolveStats()
	final, err := startSnapshotLoop(cfg.Common, st, "publisher")
	if err != nil {
		return stats.Snapshot{}, err
	}

	pub, err := tr.CreatePublisher(ctx, cfg.Topic)
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer pub.Shutdown()

	log.Infof("Starting publisher: topic=%s payload=%dB rate=%.2f/s duration=%s",
		cfg.Topic, cfg.PayloadSize, cfg.Rate, cfg.Duration)

	governor := rate.New(cfg.Rate)
	deadline := runDeadline(cfg.Duration)

	var seq uint64
	for {
		if ctx.Err() != nil {
			break
		}
		if deadline != nil && time.Now().After(*deadline) {
			break
		}
		governor.Wait()

		payload, err := wire.GeneratePayload(seq, timebase.NowUnixNanoEstimate(), cfg.PayloadSize)
		if err != nil {
			return stats.Snapshot{}, err
		}
		seq++

		if err := pub.Publish(ctx, payload); err != nil {
			st.RecordError()
			continue
		}
		st.RecordSent()
	}

	final()
	snap := st.Snapshot()
	log.Infof("Final Publisher Statistics: sent=%d errors=%d send_rate=%.2f/s",
		snap.SentCount, snap.ErrorCount, sentPerSecond(snap))
	return snap, nil
}

// sentPerSecond is the Publisher's own send rate, distinct from
// Snapshot.TotalThroughput which is defined strictly over ReceivedCount
// and is always 0 for a role that never records a receive.
func sentPerSecond(snap stats.Snapshot) float64 {
	secs := snap.TotalElapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(snap.SentCount) / secs
}

func runDeadline(d time.Duration) *time.Time {
	if d <= 0 {
		return nil
	}
	t := time.Now().Add(d)
	return &t
}
