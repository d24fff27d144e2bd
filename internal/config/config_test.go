package config

import (
	"testing"

	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvConnectDefaultsReadsPrefixedVars(t *testing.T) {
	t.Setenv("MQBENCH_CONNECT_PASSWORD", "secret")
	t.Setenv("MQBENCH_CONNECT_HOST", "broker.internal")
	t.Setenv("UNRELATED_VAR", "ignored")

	defaults := EnvConnectDefaults()
	v, ok := defaults.Get("password")
	assert.True(t, ok)
	assert.Equal(t, "secret", v)
	v, ok = defaults.Get("host")
	assert.True(t, ok)
	assert.Equal(t, "broker.internal", v)
	_, ok = defaults.Get("unrelated_var")
	assert.False(t, ok)
}

func TestApplyConnectDefaultsDoesNotOverwriteExplicit(t *testing.T) {
	opts, err := ParseConnectKV([]string{"password=from-flag"})
	require.NoError(t, err)
	defaults := transport.ConnectOptions{Params: map[string]string{"password": "from-env", "host": "from-env-host"}}

	merged := ApplyConnectDefaults(opts, defaults)
	v, _ := merged.Get("password")
	assert.Equal(t, "from-flag", v)
	v, _ = merged.Get("host")
	assert.Equal(t, "from-env-host", v)
}

func TestParseConnectKV(t *testing.T) {
	opts, err := ParseConnectKV([]string{"host=127.0.0.1", "port=1883"})
	require.NoError(t, err)
	v, ok := opts.Get("host")
	assert.True(t, ok)
	assert.Equal(t, "127.0.0.1", v)
}

func TestParseConnectKVMalformed(t *testing.T) {
	_, err := ParseConnectKV([]string{"no-equals-sign"})
	assert.Error(t, err)
}

func TestParseConnectKVValueContainsEquals(t *testing.T) {
	opts, err := ParseConnectKV([]string{"dsn=user=alice;pass=secret"})
	require.NoError(t, err)
	v, _ := opts.Get("dsn")
	assert.Equal(t, "user=alice;pass=secret", v)
}

func TestApplyEndpointAliasDoesNotOverwrite(t *testing.T) {
	opts, err := ParseConnectKV([]string{"endpoint=explicit:1234"})
	require.NoError(t, err)
	opts = ApplyEndpointAlias(opts, "legacy:5678")
	v, _ := opts.Get("endpoint")
	assert.Equal(t, "explicit:1234", v)
}

func TestApplyEndpointAliasSetsWhenAbsent(t *testing.T) {
	opts := ApplyEndpointAlias(transport.ConnectOptions{}, "legacy:5678")
	v, ok := opts.Get("endpoint")
	assert.True(t, ok)
	assert.Equal(t, "legacy:5678", v)
}
