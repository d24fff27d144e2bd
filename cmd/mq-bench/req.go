package main

import (
	"flag"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/aggregate"
	"github.com/hpcclab/mq-bench-go/internal/roles"
	"github.com/hpcclab/mq-bench-go/internal/transport"
)

func runReq(args []string) error {
	fs := flag.NewFlagSet("req", flag.ExitOnError)
	registerGlobalFlags(fs)

	var (
		engineName  string
		endpoint    string
		connect     repeatedFlag
		keyExpr     string
		qps         float64
		concurrency int
		timeoutMs   int
		duration    int
		payload     int
		csv         string
	)
	fs.StringVar(&engineName, "engine", "mock", "messaging engine: zenoh, tcp, redis, mqtt, nats, amqp, mock")
	fs.StringVar(&endpoint, "endpoint", "", "legacy endpoint alias, folded into --connect endpoint=")
	fs.Var(&connect, "connect", "engine connection option KEY=VALUE (repeatable)")
	fs.StringVar(&keyExpr, "key-expr", "", "request subject")
	fs.Float64Var(&qps, "rate", 0, "target requests/sec across all in-flight requests; 0 disables pacing")
	fs.IntVar(&concurrency, "concurrency", 1, "max in-flight requests")
	fs.IntVar(&timeoutMs, "timeout-ms", 5000, "per-request timeout in milliseconds")
	fs.IntVar(&duration, "duration", 60, "run duration in seconds; 0 runs until interrupted")
	fs.IntVar(&payload, "payload", 1024, "request payload size in bytes")
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

	_, err = roles.RunRequester(ctx, tr, roles.RequesterConfig{
		Common: roles.Common{
			SnapshotInterval: snapshotInterval(),
			Duration:         time.Duration(duration) * time.Second,
			Sink:             out,
			Harness:          harness,
			MetricsRefresh:   metricsRefresh,
		},
		Subject:     keyExpr,
		PayloadSize: payload,
		Rate:        qps,
		Concurrency: concurrency,
		Timeout:     time.Duration(timeoutMs) * time.Millisecond,
	})
	return err
}
