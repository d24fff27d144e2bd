package redisx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := encodeEnvelope("mqb:replies:abc", []byte("hello"))
	ch, payload, err := decodeEnvelope(string(env))
	require.NoError(t, err)
	assert.Equal(t, "mqb:replies:abc", ch)
	assert.Equal(t, "hello", string(payload))
}

func TestDecodeEnvelopeTooShort(t *testing.T) {
	_, _, err := decodeEnvelope("\x01")
	assert.Error(t, err)
}

func TestToRedisPattern(t *testing.T) {
	assert.Equal(t, "bench/*", toRedisPattern("bench/**"))
	assert.Equal(t, "bench/topic", toRedisPattern("bench/topic"))
}
