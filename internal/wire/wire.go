// Package wire implements the fixed binary message layout shared by every
// transport adapter: a 24-byte little-endian header followed by a
// deterministic payload fill.
package wire

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the encoded size of Header in bytes.
const HeaderSize = 24

// fillPattern is repeated across the padding bytes of a generated payload so
// received messages can be sanity-checked by eye in a packet capture.
const fillPattern = "ZENOH_BENCH"

// Header is the fixed-size prefix carried by every generated message.
type Header struct {
	Seq         uint64
	TimestampNs uint64
	PayloadSize uint64
}

// NewHeader builds a header stamped with the given sequence number and
// total payload size (header included).
func NewHeader(seq, timestampNs, payloadSize uint64) Header {
	return Header{Seq: seq, TimestampNs: timestampNs, PayloadSize: payloadSize}
}

// Encode serializes h into a 24-byte little-endian buffer.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], h.Seq)
	binary.LittleEndian.PutUint64(buf[8:16], h.TimestampNs)
	binary.LittleEndian.PutUint64(buf[16:24], h.PayloadSize)
	return buf
}

// DecodeHeader parses a header from the front of buf.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("wire: header needs %d bytes, got %d", HeaderSize, len(buf))
	}
	return Header{
		Seq:         binary.LittleEndian.Uint64(buf[0:8]),
		TimestampNs: binary.LittleEndian.Uint64(buf[8:16]),
		PayloadSize: binary.LittleEndian.Uint64(buf[16:24]),
	}, nil
}

// ParseHeader is an alias of DecodeHeader kept for readability at call
// sites that only care about the header, not the full payload.
func ParseHeader(payload []byte) (Header, error) {
	return DecodeHeader(payload)
}

// GeneratePayload builds a size-byte message: a 24-byte header followed by
// size-24 bytes of the repeating fillPattern. size must be at least
// HeaderSize.
func GeneratePayload(seq uint64, timestampNs uint64, size int) ([]byte, error) {
	if size < HeaderSize {
		return nil, fmt.Errorf("wire: payload size %d smaller than header size %d", size, HeaderSize)
	}
	buf := make([]byte, size)
	hdr := NewHeader(seq, timestampNs, uint64(size))
	copy(buf[:HeaderSize], hdr.Encode()[:])
	for i := HeaderSize; i < size; i++ {
		buf[i] = fillPattern[(i-HeaderSize)%len(fillPattern)]
	}
	return buf, nil
}
