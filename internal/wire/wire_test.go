package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader(42, 1_700_000_000_000_000_000, 256)
	buf := h.Encode()
	got, err := DecodeHeader(buf[:])
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeHeaderTooShort(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	assert.Error(t, err)
}

func TestGeneratePayloadRejectsUndersize(t *testing.T) {
	_, err := GeneratePayload(0, 0, HeaderSize-1)
	assert.Error(t, err)
}

func TestGeneratePayloadHeaderAndFill(t *testing.T) {
	const size = 64
	payload, err := GeneratePayload(7, 123456, size)
	require.NoError(t, err)
	require.Len(t, payload, size)

	hdr, err := ParseHeader(payload)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), hdr.Seq)
	assert.Equal(t, uint64(123456), hdr.TimestampNs)
	assert.Equal(t, uint64(size), hdr.PayloadSize)

	for i := HeaderSize; i < size; i++ {
		assert.Equal(t, fillPattern[(i-HeaderSize)%len(fillPattern)], payload[i])
	}
}

func TestGeneratePayloadExactHeaderSize(t *testing.T) {
	payload, err := GeneratePayload(1, 1, HeaderSize)
	require.NoError(t, err)
	assert.Len(t, payload, HeaderSize)
}
