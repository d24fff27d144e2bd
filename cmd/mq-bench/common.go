package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/config"
	"github.com/hpcclab/mq-bench-go/internal/metricsserver"
	"github.com/hpcclab/mq-bench-go/internal/sink"
	"github.com/hpcclab/mq-bench-go/internal/stats"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// repeatedFlag accumulates every occurrence of a flag.Var-based flag,
// used for --connect KEY=VALUE which may be passed multiple times.
type repeatedFlag []string

func (r *repeatedFlag) String() string { return fmt.Sprint([]string(*r)) }
func (r *repeatedFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func buildConnectOptions(connectPairs []string, endpoint string) (transport.ConnectOptions, error) {
	opts, err := config.ParseConnectKV(connectPairs)
	if err != nil {
		return transport.ConnectOptions{}, err
	}
	opts = config.ApplyEndpointAlias(opts, endpoint)
	opts = config.ApplyConnectDefaults(opts, config.EnvConnectDefaults())
	return opts, nil
}

func buildSink(csvPath, outDir string) (sink.Sink, error) {
	if csvPath == "" {
		return sink.NewStdout(), nil
	}
	path := csvPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(outDir, path)
	}
	return sink.NewCSV(path)
}

func snapshotInterval() time.Duration {
	return time.Duration(flagSnapshotSeconds) * time.Second
}

// maybeStartMetrics starts the Prometheus/health surface when --metrics-addr
// is set. tr may be nil (the multi-topic drivers own their transport
// lifecycle internally); HealthCheck is then reported unconditionally
// healthy. It returns a refresh hook to plug into a role's snapshot path
// and a shutdown func to defer; both are no-ops when metrics are disabled.
func maybeStartMetrics(tr transport.Transport) (refresh func(stats.Snapshot), shutdown func()) {
	if flagMetricsAddr == "" {
		return func(stats.Snapshot) {}, func() {}
	}
	srv := metricsserver.New(flagMetricsAddr, tr)
	srv.Serve()
	log.Infof("metrics: serving /metrics and /healthz on %s", flagMetricsAddr)
	return srv.Refresh, func() {
		if err := srv.Shutdown(); err != nil {
			log.Warnf("metrics: shutdown: %v", err)
		}
	}
}
