package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsRecoverable(t *testing.T) {
	assert.True(t, NewError(KindTimeout, "deadline", nil).IsRecoverable())
	assert.True(t, NewError(KindDisconnected, "lost", nil).IsRecoverable())
	assert.False(t, NewError(KindConnect, "bad host", nil).IsRecoverable())
	assert.False(t, NewError(KindOther, "?", nil).IsRecoverable())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(KindPublish, "failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestConnectOptionsGetDefault(t *testing.T) {
	o := ConnectOptions{Params: map[string]string{"host": "10.0.0.1"}}
	assert.Equal(t, "10.0.0.1", o.GetDefault("host", "127.0.0.1"))
	assert.Equal(t, "1883", o.GetDefault("port", "1883"))
}
