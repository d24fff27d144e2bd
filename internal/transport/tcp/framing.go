// Package tcp implements the raw-TCP Transport adapter: a length-prefixed
// frame carrying a topic and a payload, with no broker in between.
package tcp

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame serializes (topic, payload) as:
//
//	u32 LE inner_len   (= 2 + len(topic) + len(payload))
//	u16 LE topic_len
//	topic bytes
//	payload bytes
func Frame(topic string, payload []byte) []byte {
	topicBytes := []byte(topic)
	innerLen := 2 + len(topicBytes) + len(payload)
	buf := make([]byte, 4+innerLen)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(innerLen))
	binary.LittleEndian.PutUint16(buf[4:6], uint16(len(topicBytes)))
	copy(buf[6:6+len(topicBytes)], topicBytes)
	copy(buf[6+len(topicBytes):], payload)
	return buf
}

// ReadFrame reads one frame from r and returns its topic and payload.
func ReadFrame(r io.Reader) (topic string, payload []byte, err error) {
	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return "", nil, err
	}
	innerLen := binary.LittleEndian.Uint32(lenBuf[:])
	if innerLen < 2 {
		return "", nil, fmt.Errorf("tcp: inner length %d smaller than topic-length field", innerLen)
	}
	body := make([]byte, innerLen)
	if _, err = io.ReadFull(r, body); err != nil {
		return "", nil, err
	}
	topicLen := binary.LittleEndian.Uint16(body[0:2])
	if int(2+topicLen) > len(body) {
		return "", nil, fmt.Errorf("tcp: topic length %d exceeds frame body", topicLen)
	}
	topic = string(body[2 : 2+topicLen])
	payload = body[2+topicLen:]
	return topic, payload, nil
}
