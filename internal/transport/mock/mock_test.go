package mock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/stretchr/testify/require"
)

func freshBusOpts() transport.ConnectOptions {
	return transport.ConnectOptions{Params: map[string]string{"bus": uuid.NewString()}}
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	ctx := context.Background()
	tr, err := Connect(ctx, freshBusOpts())
	require.NoError(t, err)

	received := make(chan []byte, 1)
	sub, err := tr.Subscribe(ctx, "bench/topic", func(subject string, payload []byte) {
		received <- payload
	})
	require.NoError(t, err)
	defer sub.Shutdown()

	pub, err := tr.CreatePublisher(ctx, "bench/topic")
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, []byte("hello")))

	select {
	case got := <-received:
		require.Equal(t, "hello", string(got))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestWildcardSubscribe(t *testing.T) {
	ctx := context.Background()
	tr, err := Connect(ctx, freshBusOpts())
	require.NoError(t, err)

	received := make(chan string, 4)
	sub, err := tr.Subscribe(ctx, "bench/**", func(subject string, payload []byte) {
		received <- subject
	})
	require.NoError(t, err)
	defer sub.Shutdown()

	pub1, _ := tr.CreatePublisher(ctx, "bench/a")
	pub2, _ := tr.CreatePublisher(ctx, "bench/b")
	require.NoError(t, pub1.Publish(ctx, []byte("1")))
	require.NoError(t, pub2.Publish(ctx, []byte("2")))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case s := <-received:
			seen[s] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for messages")
		}
	}
	require.True(t, seen["bench/a"])
	require.True(t, seen["bench/b"])
}

func TestRequestReply(t *testing.T) {
	ctx := context.Background()
	tr, err := Connect(ctx, freshBusOpts())
	require.NoError(t, err)

	reg, err := tr.RegisterQueryable(ctx, "bench/echo", func(q transport.IncomingQuery) {
		_ = q.Responder.Send(ctx, append([]byte("echo:"), q.Payload...))
	})
	require.NoError(t, err)
	defer reg.Shutdown()

	reqCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	reply, err := tr.Request(reqCtx, "bench/echo", []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, "echo:ping", string(reply))
}

func TestRequestWithNoQueryableErrors(t *testing.T) {
	ctx := context.Background()
	tr, err := Connect(ctx, freshBusOpts())
	require.NoError(t, err)

	_, err = tr.Request(ctx, "bench/nobody", []byte("ping"))
	require.Error(t, err)
	var tErr *transport.Error
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, transport.KindRequest, tErr.Kind)
}

func TestRequestTimesOutWhenHandlerNeverReplies(t *testing.T) {
	ctx := context.Background()
	tr, err := Connect(ctx, freshBusOpts())
	require.NoError(t, err)

	reg, err := tr.RegisterQueryable(ctx, "bench/silent", func(q transport.IncomingQuery) {
		// never responds
	})
	require.NoError(t, err)
	defer reg.Shutdown()

	reqCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = tr.Request(reqCtx, "bench/silent", []byte("ping"))
	require.Error(t, err)
	var tErr *transport.Error
	require.ErrorAs(t, err, &tErr)
	require.Equal(t, transport.KindTimeout, tErr.Kind)
	require.True(t, tErr.IsRecoverable())
}

func TestHealthCheck(t *testing.T) {
	tr, err := Connect(context.Background(), freshBusOpts())
	require.NoError(t, err)
	require.NoError(t, tr.HealthCheck())
}
