package main

import (
	"flag"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/aggregate"
	"github.com/hpcclab/mq-bench-go/internal/roles"
	"github.com/hpcclab/mq-bench-go/internal/transport"
)

func runQry(args []string) error {
	fs := flag.NewFlagSet("qry", flag.ExitOnError)
	registerGlobalFlags(fs)

	var (
		engineName  string
		endpoint    string
		connect     repeatedFlag
		servePrefix repeatedFlag
		replySize   int
		procDelayMs int
		duration    int
		csv         string
	)
	fs.StringVar(&engineName, "engine", "mock", "messaging engine: zenoh, tcp, redis, mqtt, nats, amqp, mock")
	fs.StringVar(&endpoint, "endpoint", "", "legacy endpoint alias, folded into --connect endpoint=")
	fs.Var(&connect, "connect", "engine connection option KEY=VALUE (repeatable)")
	fs.Var(&servePrefix, "serve-prefix", "subject to register a queryable on (repeatable)")
	fs.IntVar(&replySize, "reply-size", 1024, "reply payload size in bytes")
	fs.IntVar(&procDelayMs, "proc-delay-ms", 0, "artificial per-reply processing delay")
	fs.IntVar(&duration, "duration", 60, "run duration in seconds; 0 runs until interrupted")
	fs.StringVar(&csv, "csv", "", "CSV output path relative to --out-dir; empty writes to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyGlobalLogging()

	if len(servePrefix) == 0 {
		servePrefix = repeatedFlag{"bench/**"}
	}

	engine, err := transport.ParseEngine(engineName)
	if err != nil {
		return err
	}
	opts, err := buildConnectOptions(connect, endpoint)
	if err != nil {
		return err
	}
	out, err := buildSink(csv, flagOutDir)
	if err != nil {
		return err
	}
	defer out.Close()

	ctx, cancel := signalContext()
	defer cancel()

	tr, err := transport.Connect(ctx, engine, opts)
	if err != nil {
		return err
	}
	defer tr.Shutdown()

	harness, err := aggregate.NewHarness()
	if err != nil {
		return err
	}
	defer harness.Shutdown()

	metricsRefresh, metricsShutdown := maybeStartMetrics(tr)
	defer metricsShutdown()

	_, err = roles.RunQueryable(ctx, tr, roles.QueryableConfig{
		Common: roles.Common{
			SnapshotInterval: snapshotInterval(),
			Duration:         time.Duration(duration) * time.Second,
			Sink:             out,
			Harness:          harness,
			MetricsRefresh:   metricsRefresh,
		},
		ServePrefixes: servePrefix,
		ReplySize:     replySize,
		ProcDelay:     time.Duration(procDelayMs) * time.Millisecond,
	})
	return err
}
