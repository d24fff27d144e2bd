package redisx

import (
	"encoding/binary"
	"fmt"
)

// encodeEnvelope wraps a request payload with the reply channel name, the
// same pattern used by the mqtt adapter, since Redis Pub/Sub has no
// native request/reply correlation either.
func encodeEnvelope(replyChannel string, payload []byte) []byte {
	chanBytes := []byte(replyChannel)
	buf := make([]byte, 2+len(chanBytes)+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(chanBytes)))
	copy(buf[2:2+len(chanBytes)], chanBytes)
	copy(buf[2+len(chanBytes):], payload)
	return buf
}

func decodeEnvelope(envelope string) (replyChannel string, payload []byte, err error) {
	b := []byte(envelope)
	if len(b) < 2 {
		return "", nil, fmt.Errorf("redisx: envelope shorter than length prefix")
	}
	chanLen := binary.LittleEndian.Uint16(b[0:2])
	if int(2+chanLen) > len(b) {
		return "", nil, fmt.Errorf("redisx: reply channel length %d exceeds envelope", chanLen)
	}
	replyChannel = string(b[2 : 2+chanLen])
	payload = b[2+chanLen:]
	return replyChannel, payload, nil
}
