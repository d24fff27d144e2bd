package tcp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	frame := Frame("bench/topic", []byte("payload-bytes"))
	topic, payload, err := ReadFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, "bench/topic", topic)
	assert.Equal(t, "payload-bytes", string(payload))
}

func TestFrameEmptyPayload(t *testing.T) {
	frame := Frame("t", nil)
	topic, payload, err := ReadFrame(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, "t", topic)
	assert.Empty(t, payload)
}

func TestReadFrameTruncated(t *testing.T) {
	frame := Frame("bench/topic", []byte("payload"))
	_, _, err := ReadFrame(bytes.NewReader(frame[:5]))
	assert.Error(t, err)
}

func TestMultipleFramesOnStream(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Frame("a", []byte("1")))
	buf.Write(Frame("b", []byte("2")))

	topic1, payload1, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "a", topic1)
	assert.Equal(t, "1", string(payload1))

	topic2, payload2, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, "b", topic2)
	assert.Equal(t, "2", string(payload2))
}
