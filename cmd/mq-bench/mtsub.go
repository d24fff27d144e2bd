package main

import (
	"flag"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/aggregate"
	"github.com/hpcclab/mq-bench-go/internal/multitopic"
	"github.com/hpcclab/mq-bench-go/internal/transport"
)

func runMtSub(args []string) error {
	fs := flag.NewFlagSet("mt-sub", flag.ExitOnError)
	registerGlobalFlags(fs)

	var (
		engineName     string
		endpoint       string
		connect        repeatedFlag
		topicPrefix    string
		tenants        uint64
		regions        uint64
		services       uint64
		shards         uint64
		subscribers    int64
		mapping        string
		duration       int
		shareTransport bool
		csv            string
	)
	fs.StringVar(&engineName, "engine", "mock", "messaging engine: zenoh, tcp, redis, mqtt, nats, amqp, mock")
	fs.StringVar(&endpoint, "endpoint", "", "legacy endpoint alias, folded into --connect endpoint=")
	fs.Var(&connect, "connect", "engine connection option KEY=VALUE (repeatable)")
	fs.StringVar(&topicPrefix, "topic-prefix", "bench", "topic prefix for generated keys")
	fs.Uint64Var(&tenants, "tenants", 1, "tenant dimension size")
	fs.Uint64Var(&regions, "regions", 1, "region dimension size")
	fs.Uint64Var(&services, "services", 1, "service dimension size")
	fs.Uint64Var(&shards, "shards", 1, "shard dimension size")
	fs.Int64Var(&subscribers, "subscribers", -1, "subscriber goroutines; negative means one per key")
	fs.StringVar(&mapping, "mapping", "mdim", "index-to-key mapping: mdim or hash")
	fs.IntVar(&duration, "duration", 60, "run duration in seconds; 0 runs until interrupted")
	fs.BoolVar(&shareTransport, "share-transport", true, "share one connection across all subscribers")
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

	harness, err := aggregate.NewHarness()
	if err != nil {
		return err
	}
	defer harness.Shutdown()

	metricsRefresh, metricsShutdown := maybeStartMetrics(nil)
	defer metricsShutdown()

	_, err = multitopic.RunSubscribers(ctx, multitopic.Config{
		Engine:         engine,
		Connect:        opts,
		TopicPrefix:    topicPrefix,
		Tenants:        tenants,
		Regions:        regions,
		Services:       services,
		Shards:         shards,
		Publishers:     subscribers,
		Mapping:        parseMapping(mapping),
		Duration:       time.Duration(duration) * time.Second,
		SnapshotEvery:  snapshotInterval(),
		ShareTransport: shareTransport,
		Sink:           out,
		Harness:        harness,
		MetricsRefresh: metricsRefresh,
	})
	return err
}
