// Package roles implements the four load-generation/measurement drivers:
// Publisher, Subscriber, Requester, and Queryable. Each driver talks only
// to the transport.Transport contract, never to a specific engine, so the
// same driver code runs unmodified against mock, tcp, mqtt, redis, nats,
// amqp, or zenoh.
package roles

import (
	"time"

	"github.com/hpcclab/mq-bench-go/internal/aggregate"
	"github.com/hpcclab/mq-bench-go/internal/sink"
	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// Common holds the fields every role config shares.
type Common struct {
	// SnapshotInterval is how often a periodic StatsSnapshot is logged
	// and written to Sink.
	SnapshotInterval time.Duration
	// Duration bounds how long the role's main loop runs; zero means
	// run until externally cancelled (ctrl-c / context cancellation).
	Duration time.Duration
	// Sink receives each periodic snapshot plus the final one.
	Sink sink.Sink
	// Harness schedules the periodic snapshot job. Required.
	Harness *aggregate.Harness

	// SharedStats, when non-nil, is used instead of a role-local Stats
	// collector — this is the aggregation-harness path where several
	// role instances in one process report into a single collector.
	SharedStats *stats.Stats
	// DisableInternalSnapshot suppresses this role's own periodic
	// snapshot job; used together with SharedStats when an external
	// aggregator already owns the snapshot cadence for the group.
	DisableInternalSnapshot bool

	// MetricsRefresh, when non-nil, receives every snapshot alongside the
	// Sink write — the hook metricsserver.Server.Refresh is plugged into
	// when --metrics-addr is set.
	MetricsRefresh func(stats.Snapshot)
}

// resolveStats returns the Stats collector this role instance should
// record into: the shared one if configured, otherwise a fresh role-local
// collector.
func (c Common) resolveStats() *stats.Stats {
	if c.SharedStats != nil {
		return c.SharedStats
	}
	return stats.New()
}

// startSnapshotLoop wires a periodic snapshot job onto the harness unless
// suppressed, returning a function the caller must invoke at shutdown to
// flush one final snapshot.
func startSnapshotLoop(c Common, st *stats.Stats, label string) (final func(), err error) {
	if !c.DisableInternalSnapshot && c.SnapshotInterval > 0 {
		err = c.Harness.ScheduleSnapshot(c.SnapshotInterval, func() {
			writeSnapshot(c, st, label)
		})
		if err != nil {
			return nil, err
		}
	}
	return func() { writeSnapshot(c, st, label) }, nil
}

func writeSnapshot(c Common, st *stats.Stats, label string) {
	if c.Sink == nil {
		return
	}
	snap := st.Snapshot()
	if err := c.Sink.WriteSnapshot(snap); err != nil {
		log.Warnf("%s: write snapshot: %v", label, err)
	}
	if c.MetricsRefresh != nil {
		c.MetricsRefresh(snap)
	}
}
