// Package config parses the CLI's connection-related flags into a
// transport.ConnectOptions, grounded on the original harness's
// parse_connect_kv.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hpcclab/mq-bench-go/internal/transport"
)

// envConnectPrefix names the environment variable prefix read for default
// connect options, e.g. MQBENCH_CONNECT_PASSWORD=... sets the "password"
// key the way cc-backend's own JWT_SECRET/DB_* vars seed its config —
// loaded from an optional .env file via godotenv in cmd/mq-bench/main.go
// before this package ever sees the environment.
const envConnectPrefix = "MQBENCH_CONNECT_"

// EnvConnectDefaults reads MQBENCH_CONNECT_* environment variables into a
// ConnectOptions, lower-casing the suffix into the option key
// (MQBENCH_CONNECT_PASSWORD -> "password"). It is the lowest-priority
// source of connect options: ApplyConnectDefaults only fills keys the
// explicit --connect flags didn't already set.
func EnvConnectDefaults() transport.ConnectOptions {
	params := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, envConnectPrefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(k, envConnectPrefix))
		if key == "" {
			continue
		}
		params[key] = v
	}
	return transport.ConnectOptions{Params: params}
}

// ApplyConnectDefaults fills any key present in defaults but absent from
// opts, without overwriting an explicit value the user already supplied.
func ApplyConnectDefaults(opts, defaults transport.ConnectOptions) transport.ConnectOptions {
	if len(defaults.Params) == 0 {
		return opts
	}
	if opts.Params == nil {
		opts.Params = map[string]string{}
	}
	for k, v := range defaults.Params {
		if _, exists := opts.Params[k]; !exists {
			opts.Params[k] = v
		}
	}
	return opts
}

// ParseConnectKV turns a list of "key=value" strings (as repeated from
// --connect) into a ConnectOptions. Malformed pairs (missing "=") are
// rejected so a typo doesn't silently vanish.
func ParseConnectKV(pairs []string) (transport.ConnectOptions, error) {
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return transport.ConnectOptions{}, fmt.Errorf("config: malformed --connect value %q, want key=value", p)
		}
		params[k] = v
	}
	return transport.ConnectOptions{Params: params}, nil
}

// ApplyEndpointAlias folds the legacy --endpoint flag into opts under the
// "endpoint" key, without overwriting an explicit --connect endpoint=...
// the user may also have supplied.
func ApplyEndpointAlias(opts transport.ConnectOptions, endpoint string) transport.ConnectOptions {
	if endpoint == "" {
		return opts
	}
	if opts.Params == nil {
		opts.Params = map[string]string{}
	}
	if _, exists := opts.Params["endpoint"]; !exists {
		opts.Params["endpoint"] = endpoint
	}
	return opts
}
