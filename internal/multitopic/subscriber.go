package multitopic

import (
	"context"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/internal/timebase"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/hpcclab/mq-bench-go/internal/wire"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// RunSubscribers mirrors RunPublishers on the receive side: it subscribes
// to the same key space, either with one shared Transport and one
// subscription per key (ShareTransport) or one dedicated Transport per
// key, recording latency on every delivered message into a single Stats
// collector.
func RunSubscribers(ctx context.Context, cfg Config) (stats.Snapshot, error) {
	keys := totalKeys(cfg)
	subs := uint64(cfg.Publishers)
	if cfg.Publishers < 0 {
		subs = keys
	}
	if subs > keys {
		subs = keys
	}
	if subs == 0 {
		subs = 1
	}

	st := cfg.SharedStats
	if st == nil {
		st = stats.New()
	}

	if !cfg.DisableInternalSnapshot && cfg.SnapshotEvery > 0 && cfg.Harness != nil {
		if err := cfg.Harness.ScheduleSnapshot(cfg.SnapshotEvery, func() {
			writeMultiTopicSnapshot(cfg, st)
		}); err != nil {
			return stats.Snapshot{}, err
		}
	}

	log.Infof("Starting multi-topic subscribers: keys=%d subscribers=%d share_transport=%v mapping=%v",
		keys, subs, cfg.ShareTransport, cfg.Mapping)

	var sharedTransport transport.Transport
	if cfg.ShareTransport {
		tr, err := transport.Connect(ctx, cfg.Engine, cfg.Connect)
		if err != nil {
			return stats.Snapshot{}, err
		}
		sharedTransport = tr
	}

	var subscriptions []transport.Subscription
	var ownedTransports []transport.Transport
	for i := uint64(0); i < subs; i++ {
		tup := MapIndex(i, cfg.Tenants, cfg.Regions, cfg.Services, cfg.Shards, cfg.Mapping)
		topic := keyTopic(cfg.TopicPrefix, tup)

		tr := sharedTransport
		if tr == nil {
			var err error
			tr, err = transport.Connect(ctx, cfg.Engine, cfg.Connect)
			if err != nil {
				log.Errorf("multitopic: connect for %s: %v", topic, err)
				continue
			}
			ownedTransports = append(ownedTransports, tr)
		}

		sub, err := tr.Subscribe(ctx, topic, func(subject string, payload []byte) {
			hdr, err := wire.ParseHeader(payload)
			if err != nil {
				st.RecordError()
				return
			}
			latency := int64(timebase.NowUnixNanoEstimate()) - int64(hdr.TimestampNs)
			st.RecordReceived(latency)
		})
		if err != nil {
			log.Errorf("multitopic: subscribe %s: %v", topic, err)
			continue
		}
		subscriptions = append(subscriptions, sub)
	}

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

	for _, sub := range subscriptions {
		sub.Shutdown()
	}
	for _, tr := range ownedTransports {
		tr.Shutdown()
	}
	if sharedTransport != nil {
		sharedTransport.Shutdown()
	}

	writeMultiTopicSnapshot(cfg, st)
	snap := st.Snapshot()
	log.Infof("Final Multi-Topic Subscriber Statistics: received=%d errors=%d", snap.ReceivedCount, snap.ErrorCount)
	return snap, nil
}
