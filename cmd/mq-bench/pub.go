package main

import (
	"flag"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/aggregate"
	"github.com/hpcclab/mq-bench-go/internal/roles"
	"github.com/hpcclab/mq-bench-go/internal/transport"
)

func runPub(args []string) error {
	fs := flag.NewFlagSet("pub", flag.ExitOnError)
	registerGlobalFlags(fs)

	var (
		engineName  string
		endpoint    string
		connect     repeatedFlag
		topicPrefix string
		payload     int
		rate        float64
		duration    int
		csv         string
	)
	fs.StringVar(&engineName, "engine", "mock", "messaging engine: zenoh, tcp, redis, mqtt, nats, amqp, mock")
	fs.StringVar(&endpoint, "endpoint", "", "legacy endpoint alias, folded into --connect endpoint=")
	fs.Var(&connect, "connect", "engine connection option KEY=VALUE (repeatable)")
	fs.StringVar(&topicPrefix, "topic-prefix", "bench/topic", "topic to publish to")
	fs.IntVar(&payload, "payload", 1024, "payload size in bytes")
	fs.Float64Var(&rate, "rate", 0, "target messages/sec; 0 disables pacing")
	fs.IntVar(&duration, "duration", 60, "run duration in seconds; 0 runs until interrupted")
	fs.StringVar(&csv, "csv", "", "CSV output path relative to --out-dir; empty writes to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	applyGlobalLogging()

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

	_, err = roles.RunPublisher(ctx, tr, roles.PublisherConfig{
		Common: roles.Common{
			SnapshotInterval: snapshotInterval(),
			Duration:         time.Duration(duration) * time.Second,
			Sink:             out,
			Harness:          harness,
			MetricsRefresh:   metricsRefresh,
		},
		Topic:       topicPrefix,
		PayloadSize: payload,
		Rate:        rate,
	})
	return err
}
