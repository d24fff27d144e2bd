package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconnectLimiterRespectsBurst(t *testing.T) {
	l := NewReconnectLimiter(1, 3)
	allowed := 0
	for i := 0; i < 5; i++ {
		if l.Allow() {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}
