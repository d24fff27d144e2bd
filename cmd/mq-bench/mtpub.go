package main

import (
	"flag"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/aggregate"
	"github.com/hpcclab/mq-bench-go/internal/multitopic"
	"github.com/hpcclab/mq-bench-go/internal/transport"
)

func parseMapping(s string) multitopic.KeyMappingMode {
	if s == "hash" {
		return multitopic.Hash
	}
	return multitopic.MDim
}

func runMtPub(args []string) error {
	fs := flag.NewFlagSet("mt-pub", flag.ExitOnError)
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
		publishers     int64
		mapping        string
		payload        int
		ratePerPub     float64
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
	fs.Int64Var(&publishers, "publishers", -1, "publisher goroutines; negative means one per key")
	fs.StringVar(&mapping, "mapping", "mdim", "index-to-key mapping: mdim or hash")
	fs.IntVar(&payload, "payload", 1024, "payload size in bytes")
	fs.Float64Var(&ratePerPub, "rate", 0, "target messages/sec per publisher; 0 disables pacing")
	fs.IntVar(&duration, "duration", 60, "run duration in seconds; 0 runs until interrupted")
	fs.BoolVar(&shareTransport, "share-transport", true, "share one connection across all publishers")
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

	_, err = multitopic.RunPublishers(ctx, multitopic.Config{
		Engine:         engine,
		Connect:        opts,
		TopicPrefix:    topicPrefix,
		Tenants:        tenants,
		Regions:        regions,
		Services:       services,
		Shards:         shards,
		Publishers:     publishers,
		Mapping:        parseMapping(mapping),
		PayloadSize:    payload,
		RatePerPub:     ratePerPub,
		Duration:       time.Duration(duration) * time.Second,
		SnapshotEvery:  snapshotInterval(),
		ShareTransport: shareTransport,
		Sink:           out,
		Harness:        harness,
		MetricsRefresh: metricsRefresh,
	})
	return err
}
