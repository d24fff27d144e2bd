package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEngineKnown(t *testing.T) {
	for _, name := range []string{"zenoh", "tcp", "redis", "mqtt", "nats", "amqp", "mock"} {
		e, err := ParseEngine(name)
		require.NoError(t, err)
		assert.Equal(t, Engine(name), e)
	}
}

func TestParseEngineUnknown(t *testing.T) {
	_, err := ParseEngine("carrier-pigeon")
	assert.Error(t, err)
}

func TestConnectUnregisteredEngine(t *testing.T) {
	_, err := Connect(context.Background(), Engine("nonexistent-engine"), ConnectOptions{})
	require.Error(t, err)
	var tErr *Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, KindConnect, tErr.Kind)
}
