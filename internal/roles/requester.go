package roles

import (
	"context"
	"sync"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/rate"
	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/internal/timebase"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/hpcclab/mq-bench-go/internal/wire"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// RequesterConfig configures RunRequester.
type RequesterConfig struct {
	Common

	Subject     string
	PayloadSize int
	Rate        float64 // messages/sec across all in-flight requests combined; <= 0 disables pacing
	Concurrency int
	Timeout     time.Duration
}

type reqEvent struct {
	kind    reqEventKind
	latency int64
}

type reqEventKind int

const (
	evSent reqEventKind = iota
	evRecv
	evErr
)

// RunRequester issues Request calls up to Concurrency in flight, paced by
// Rate. Each completed request pushes Sent immediately followed by Recv on
// success, or only Err on failure or timeout, so SentCount only ever counts
// requests that actually completed. A single worker goroutine serialises
// events into the Stats collector, matching the design used by the
// subscriber's drain loop.
func RunRequester(ctx context.Context, tr transport.Transport, cfg RequesterConfig) (stats.Snapshot, error) {
	st := cfg.resolveStats()
	final, err := startSnapshotLoop(cfg.Common, st, "requester")
	if err != nil {
		return stats.Snapshot{}, err
	}

	log.Infof("Starting requester: subject=%s concurrency=%d timeout=%s duration=%s",
		cfg.Subject, cfg.Concurrency, cfg.Timeout, cfg.Duration)

	events := make(chan reqEvent, 10_000)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for ev := range events {
			switch ev.kind {
			case evSent:
				st.RecordSent()
			case evRecv:
				st.RecordReceived(ev.latency)
			case evErr:
				st.RecordError()
			}
		}
	}()

	governor := rate.New(cfg.Rate)
	deadline := runDeadline(cfg.Duration)

	var wg sync.WaitGroup
	sem := make(chan struct{}, maxInt(1, cfg.Concurrency))
	var seq uint64

loop:
	for {
		if ctx.Err() != nil {
			break loop
		}
		if deadline != nil && time.Now().After(*deadline) {
			break loop
		}
		governor.Wait()

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}

		payload, err := wire.GeneratePayload(seq, timebase.NowUnixNanoEstimate(), cfg.PayloadSize)
		seq++
		if err != nil {
			<-sem
			close(events)
			<-workerDone
			final()
			return stats.Snapshot{}, err
		}

		wg.Add(1)
		go func(payload []byte) {
			defer wg.Done()
			defer func() { <-sem }()
			issueRequest(ctx, tr, cfg, payload, events)
		}(payload)
	}

	wg.Wait()
	close(events)
	<-workerDone

	final()
	snap := st.Snapshot()
	log.Infof("Final Requester Statistics: sent=%d received=%d errors=%d p50=%dns p99=%dns",
		snap.SentCount, snap.ReceivedCount, snap.ErrorCount, snap.LatencyNsP50, snap.LatencyNsP99)
	return snap, nil
}

func issueRequest(ctx context.Context, tr transport.Transport, cfg RequesterConfig, payload []byte, events chan<- reqEvent) {
	reqCtx := ctx
	var cancel context.CancelFunc
	if cfg.Timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	_, err := tr.Request(reqCtx, cfg.Subject, payload)
	if err != nil {
		events <- reqEvent{kind: evErr}
		return
	}
	events <- reqEvent{kind: evSent}
	events <- reqEvent{kind: evRecv, latency: time.Since(start).Nanoseconds()}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
