package multitopic

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/aggregate"
	"github.com/hpcclab/mq-bench-go/internal/rate"
	"github.com/hpcclab/mq-bench-go/internal/sink"
	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/internal/timebase"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/hpcclab/mq-bench-go/internal/wire"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// Config configures RunPublishers, the T x R x S x K fan-out driver.
type Config struct {
	Engine      transport.Engine
	Connect     transport.ConnectOptions
	TopicPrefix string

	Tenants  uint64
	Regions  uint64
	Services uint64
	Shards   uint64

	// Publishers is the number of publisher goroutines to run. A
	// negative value means "one per key" (Publishers = total key
	// count).
	Publishers int64
	Mapping    KeyMappingMode

	PayloadSize    int
	RatePerPub     float64
	Duration       time.Duration
	SnapshotEvery  time.Duration

	// ShareTransport connects once and creates one Publisher handle per
	// key on that shared Transport. When false, each publisher
	// goroutine connects (and shuts down) its own dedicated Transport.
	ShareTransport bool

	Sink    sink.Sink
	Harness *aggregate.Harness

	SharedStats             *stats.Stats
	DisableInternalSnapshot bool

	// MetricsRefresh, when non-nil, receives every periodic and final
	// snapshot alongside the Sink write.
	MetricsRefresh func(stats.Snapshot)
}

func totalKeys(c Config) uint64 {
	total := c.Tenants
	for _, d := range []uint64{c.Regions, c.Services, c.Shards} {
		if d == 0 {
			d = 1
		}
		if total == 0 {
			total = 1
		}
		total *= d
	}
	if total == 0 {
		total = 1
	}
	return total
}

func keyTopic(prefix string, tup KeyTuple) string {
	return fmt.Sprintf("%s/t%d/r%d/svc%d/k%d", prefix, tup.Tenant, tup.Region, tup.Service, tup.Shard)
}

// RunPublishers connects Publishers publisher goroutines (default: one per
// generated key) against the T x R x S x K key space and runs them until
// ctx is cancelled or Duration elapses, cooperatively stopping every
// goroutine via a single atomic flag rather than per-goroutine contexts.
func RunPublishers(ctx context.Context, cfg Config) (stats.Snapshot, error) {
	keys := totalKeys(cfg)
	pubs := uint64(cfg.Publishers)
	if cfg.Publishers < 0 {
		pubs = keys
	}
	if pubs > keys {
		pubs = keys
	}
	if pubs == 0 {
		pubs = 1
	}

	st := cfg.SharedStats
	if st == nil {
		st = stats.New()
	}

	var finalSnapshot func()
	if !cfg.DisableInternalSnapshot && cfg.SnapshotEvery > 0 && cfg.Harness != nil {
		if err := cfg.Harness.ScheduleSnapshot(cfg.SnapshotEvery, func() {
			writeMultiTopicSnapshot(cfg, st)
		}); err != nil {
			return stats.Snapshot{}, err
		}
	}
	finalSnapshot = func() { writeMultiTopicSnapshot(cfg, st) }

	log.Infof("Starting multi-topic publishers: keys=%d publishers=%d share_transport=%v mapping=%v",
		keys, pubs, cfg.ShareTransport, cfg.Mapping)

	var stop atomic.Bool
	var wg sync.WaitGroup

	var sharedTransport transport.Transport
	if cfg.ShareTransport {
		tr, err := transport.Connect(ctx, cfg.Engine, cfg.Connect)
		if err != nil {
			return stats.Snapshot{}, err
		}
		sharedTransport = tr
	}

	for i := uint64(0); i < pubs; i++ {
		tup := MapIndex(i, cfg.Tenants, cfg.Regions, cfg.Services, cfg.Shards, cfg.Mapping)
		topic := keyTopic(cfg.TopicPrefix, tup)

		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			runOnePublisher(ctx, cfg, topic, sharedTransport, st, &stop)
		}(topic)
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
	stop.Store(true)
	wg.Wait()

	if sharedTransport != nil {
		sharedTransport.Shutdown()
	}

	finalSnapshot()
	snap := st.Snapshot()
	var sendRate float64
	if secs := snap.TotalElapsed.Seconds(); secs > 0 {
		sendRate = float64(snap.SentCount) / secs
	}
	log.Infof("Final Multi-Topic Statistics: sent=%d errors=%d send_rate=%.2f/s",
		snap.SentCount, snap.ErrorCount, sendRate)
	return snap, nil
}

func runOnePublisher(ctx context.Context, cfg Config, topic string, shared transport.Transport, st *stats.Stats, stop *atomic.Bool) {
	tr := shared
	ownTransport := false
	if tr == nil {
		var err error
		tr, err = transport.Connect(ctx, cfg.Engine, cfg.Connect)
		if err != nil {
			log.Errorf("multitopic: connect for %s: %v", topic, err)
			return
		}
		ownTransport = true
	}

	pub, err := tr.CreatePublisher(ctx, topic)
	if err != nil {
		log.Errorf("multitopic: create publisher for %s: %v", topic, err)
		if ownTransport {
			tr.Shutdown()
		}
		return
	}

	governor := rate.New(cfg.RatePerPub)
	var seq uint64
	for !stop.Load() && ctx.Err() == nil {
		governor.Wait()
		payload, err := wire.GeneratePayload(seq, timebase.NowUnixNanoEstimate(), cfg.PayloadSize)
		seq++
		if err != nil {
			st.RecordError()
			continue
		}
		if err := pub.Publish(ctx, payload); err != nil {
			st.RecordError()
			continue
		}
		st.RecordSent()
	}

	pub.Shutdown()
	if ownTransport {
		tr.Shutdown()
	}
}

func writeMultiTopicSnapshot(cfg Config, st *stats.Stats) {
	snap := st.Snapshot()
	if cfg.Sink != nil {
		if err := cfg.Sink.WriteSnapshot(snap); err != nil {
			log.Warnf("multitopic: write snapshot: %v", err)
		}
	}
	if cfg.MetricsRefresh != nil {
		cfg.MetricsRefresh(snap)
	}
}
