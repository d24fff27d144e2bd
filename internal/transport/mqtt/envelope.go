package mqtt

import (
	"encoding/binary"
	"fmt"
)

// encodeRequestEnvelope wraps a request payload with the reply topic the
// requester wants the queryable to publish its answer to, since plain
// MQTT has no native request/reply correlation:
//
//	u16 LE reply_topic_len
//	reply_topic bytes (UTF-8)
//	payload bytes
func encodeRequestEnvelope(replyTopic string, payload []byte) []byte {
	topicBytes := []byte(replyTopic)
	buf := make([]byte, 2+len(topicBytes)+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(topicBytes)))
	copy(buf[2:2+len(topicBytes)], topicBytes)
	copy(buf[2+len(topicBytes):], payload)
	return buf
}

func decodeRequestEnvelope(envelope []byte) (replyTopic string, payload []byte, err error) {
	if len(envelope) < 2 {
		return "", nil, fmt.Errorf("mqtt: envelope shorter than length prefix")
	}
	topicLen := binary.LittleEndian.Uint16(envelope[0:2])
	if int(2+topicLen) > len(envelope) {
		return "", nil, fmt.Errorf("mqtt: reply topic length %d exceeds envelope", topicLen)
	}
	replyTopic = string(envelope[2 : 2+topicLen])
	payload = envelope[2+topicLen:]
	return replyTopic, payload, nil
}

// mapExpr translates the zenoh-style "/**" trailing wildcard into MQTT's
// single-level-agnostic "#" multi-level wildcard.
func mapExpr(expr string) string {
	const suffix = "/**"
	if len(expr) >= len(suffix) && expr[len(expr)-len(suffix):] == suffix {
		return expr[:len(expr)-len(suffix)] + "/#"
	}
	return expr
}
