package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := encodeRequestEnvelope("mqb/replies/abc-123", []byte("payload"))
	topic, payload, err := decodeRequestEnvelope(env)
	require.NoError(t, err)
	assert.Equal(t, "mqb/replies/abc-123", topic)
	assert.Equal(t, "payload", string(payload))
}

func TestDecodeEnvelopeTooShort(t *testing.T) {
	_, _, err := decodeRequestEnvelope([]byte{0x01})
	assert.Error(t, err)
}

func TestMapExprWildcard(t *testing.T) {
	assert.Equal(t, "bench/#", mapExpr("bench/**"))
	assert.Equal(t, "bench/topic", mapExpr("bench/topic"))
}
