package roles

import (
	"context"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/internal/timebase"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/hpcclab/mq-bench-go/internal/wire"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// latencyChanSize is the ingress channel capacity for delivered messages.
// It is unbounded-in-practice (never applies backpressure to the adapter
// callback goroutine) because a full channel would otherwise block the
// engine's own I/O thread; see drainBatchSize below for how the
// consuming worker keeps up.
const latencyChanSize = 1 << 20

// drainBatchSize bounds how many queued latencies the stats worker
// consumes per loop iteration, so a long backlog still yields to context
// cancellation promptly instead of draining unboundedly in one pass.
const drainBatchSize = 1024

// SubscriberConfig configures RunSubscriber.
type SubscriberConfig struct {
	Common

	Expr string
}

// RunSubscriber subscribes to Expr and records one latency sample per
// delivered message (receive time minus the message's embedded send
// timestamp) until ctx is cancelled or Duration elapses.
func RunSubscriber(ctx context.Context, tr transport.Transport, cfg SubscriberConfig) (stats.Snapshot, error) {
	st := cfg.resolveStats()
	final, err := startSnapshotLoop(cfg.Common, st, "subscriber")
	if err != nil {
		return stats.Snapshot{}, err
	}

	latencies := make(chan int64, latencyChanSize)

	sub, err := tr.Subscribe(ctx, cfg.Expr, func(subject string, payload []byte) {
		receiveNs := int64(timebase.NowUnixNanoEstimate())
		hdr, err := wire.ParseHeader(payload)
		if err != nil {
			st.RecordError()
			return
		}
		latency := receiveNs - int64(hdr.TimestampNs)
		select {
		case latencies <- latency:
		default:
			// Backpressure: drop rather than block the adapter's
			// delivery goroutine.
		}
	})
	if err != nil {
		return stats.Snapshot{}, err
	}
	defer sub.Shutdown()

	log.Infof("Starting subscriber: expr=%s duration=%s", cfg.Expr, cfg.Duration)

	done := make(chan struct{})
	go drainLatencies(ctx, done, latencies, st)

	if cfg.Duration > 0 {
		timer := time.NewTimer(cfg.Duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	} else {
		<-ctx.Done()
	}
	close(done)

	final()
	snap := st.Snapshot()
	log.Infof("Final Subscriber Statistics: received=%d errors=%d p50=%dns p99=%dns",
		snap.ReceivedCount, snap.ErrorCount, snap.LatencyNsP50, snap.LatencyNsP99)
	return snap, nil
}

// drainLatencies is the single worker that serialises channel events into
// the stats collector, batching up to drainBatchSize per iteration so it
// still checks done promptly under heavy backlog.
func drainLatencies(ctx context.Context, done <-chan struct{}, latencies <-chan int64, st *stats.Stats) {
	batch := make([]int64, 0, drainBatchSize)
	for {
		select {
		case <-done:
			drainRemaining(latencies, st)
			return
		case lat := <-latencies:
			batch = append(batch, lat)
			for len(batch) < drainBatchSize {
				select {
				case lat := <-latencies:
					batch = append(batch, lat)
				default:
					goto flush
				}
			}
		flush:
			st.RecordReceivedBatch(batch)
			batch = batch[:0]
		}
	}
}

func drainRemaining(latencies <-chan int64, st *stats.Stats) {
	batch := make([]int64, 0, drainBatchSize)
	for {
		select {
		case lat := <-latencies:
			batch = append(batch, lat)
		default:
			st.RecordReceivedBatch(batch)
			return
		}
	}
}
