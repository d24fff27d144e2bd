package roles

import (
	"context"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/hpcclab/mq-bench-go/internal/wire"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// QueryableConfig configures RunQueryable.
type QueryableConfig struct {
	Common

	ServePrefixes []string
	ReplySize     int
	ProcDelay     time.Duration
}

// RunQueryable registers one queryable per entry in ServePrefixes and
// replies to every incoming query with a payload generated once at
// startup and cloned per reply, mirroring the original harness's
// precomputed cached_payload design. It blocks until ctx is cancelled or
// Duration elapses.
func RunQueryable(ctx context.Context, tr transport.Transport, cfg QueryableConfig) (stats.Snapshot, error) {
	st := cfg.resolveStats()
	final, err := startSnapshotLoop(cfg.Common, st, "queryable")
	if err != nil {
		return stats.Snapshot{}, err
	}

	cachedPayload, err := wire.GeneratePayload(0, 0, cfg.ReplySize)
	if err != nil {
		return stats.Snapshot{}, err
	}

	log.Infof("Starting queryable: prefixes=%v reply_size=%dB proc_delay=%s duration=%s",
		cfg.ServePrefixes, cfg.ReplySize, cfg.ProcDelay, cfg.Duration)

	var registrations []transport.QueryRegistration
	for _, prefix := range cfg.ServePrefixes {
		reg, err := tr.RegisterQueryable(ctx, prefix, func(q transport.IncomingQuery) {
			if cfg.ProcDelay > 0 {
				time.Sleep(cfg.ProcDelay)
			}
			reply := make([]byte, len(cachedPayload))
			copy(reply, cachedPayload)
			if err := q.Responder.Send(ctx, reply); err != nil {
				st.RecordError()
				return
			}
			st.RecordSent()
		})
		if err != nil {
			for _, r := range registrations {
				r.Shutdown()
			}
			return stats.Snapshot{}, err
		}
		registrations = append(registrations, reg)
	}
	defer func() {
		for _, r := range registrations {
			r.Shutdown()
		}
	}()

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

	final()
	snap := st.Snapshot()
	log.Infof("Final Queryable Statistics: replied=%d errors=%d", snap.SentCount, snap.ErrorCount)
	return snap, nil
}
