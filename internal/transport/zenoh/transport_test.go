package zenoh

import (
	"context"
	"testing"

	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectsUnknownReliability(t *testing.T) {
	_, err := Connect(context.Background(), transport.ConnectOptions{
		Params: map[string]string{"reliability": "ultra"},
	})
	require.Error(t, err)
	var tErr *transport.Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, transport.KindConnect, tErr.Kind)
}

func TestDefaultsToBestEffort(t *testing.T) {
	tr, err := Connect(context.Background(), transport.ConnectOptions{
		Params: map[string]string{"listen": "127.0.0.1:0"},
	})
	require.NoError(t, err)
	zt := tr.(*Transport)
	assert.Equal(t, "best", zt.reliability)
}
