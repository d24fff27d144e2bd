// Package aggregate owns the process-wide periodic job scheduler and the
// shared-Stats composition that lets several role instances (e.g. many
// multi-topic publishers) report through one collector and one snapshot
// cadence instead of each running its own ticker.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/hpcclab/mq-bench-go/internal/sink"
	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// Harness owns one gocron.Scheduler for the lifetime of a process. Every
// periodic snapshot loop a role needs is registered as a DurationJob on
// this scheduler rather than a hand-rolled time.Ticker loop.
type Harness struct {
	scheduler gocron.Scheduler
	jobs      []gocron.Job
}

// NewHarness creates and starts an empty scheduler.
func NewHarness() (*Harness, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("aggregate: create scheduler: %w", err)
	}
	h := &Harness{scheduler: s}
	s.Start()
	return h, nil
}

// ScheduleSnapshot registers fn to run every interval. It is used both for
// a single role's own snapshot loop and for an externally-aggregated
// Stats collector's shared snapshot loop.
func (h *Harness) ScheduleSnapshot(interval time.Duration, fn func()) error {
	job, err := h.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fn),
	)
	if err != nil {
		return fmt.Errorf("aggregate: schedule snapshot job: %w", err)
	}
	h.jobs = append(h.jobs, job)
	return nil
}

// Shutdown stops the scheduler and waits for in-flight jobs to finish.
func (h *Harness) Shutdown() error {
	return h.scheduler.Shutdown()
}

// SharedCollector bundles one Stats instance with the sink it reports to,
// for use when multiple role goroutines in the same process record into a
// single collector (the "aggregated externally" case referenced by
// roles.Common.DisableInternalSnapshot).
type SharedCollector struct {
	Stats *stats.Stats
	Sink  sink.Sink
}

// NewSharedCollector builds a collector and wires its periodic snapshot
// job onto h.
func (h *Harness) NewSharedCollector(ctx context.Context, interval time.Duration, out sink.Sink, label string) (*SharedCollector, error) {
	c := &SharedCollector{Stats: stats.New(), Sink: out}
	err := h.ScheduleSnapshot(interval, func() {
		snap := c.Stats.Snapshot()
		if err := c.Sink.WriteSnapshot(snap); err != nil {
			log.Warnf("%s: write aggregate snapshot: %v", label, err)
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
