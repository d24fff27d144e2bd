package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestTCPPublishSubscribe(t *testing.T) {
	ctx := context.Background()
	addr := freeAddr(t)

	subTr, err := Connect(ctx, transport.ConnectOptions{Params: map[string]string{"listen": addr}})
	require.NoError(t, err)

	received := make(chan []byte, 1)
	sub, err := subTr.Subscribe(ctx, "bench/topic", func(subject string, payload []byte) {
		received <- payload
	})
	require.NoError(t, err)
	defer sub.Shutdown()

	time.Sleep(20 * time.Millisecond) // let the listener come up

	pubTr, err := Connect(ctx, transport.ConnectOptions{Params: map[string]string{"endpoint": addr}})
	require.NoError(t, err)
	pub, err := pubTr.CreatePublisher(ctx, "bench/topic")
	require.NoError(t, err)
	defer pub.Shutdown()

	require.NoError(t, pub.Publish(ctx, []byte("hi")))

	select {
	case got := <-received:
		require.Equal(t, "hi", string(got))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestTCPRequestReply(t *testing.T) {
	ctx := context.Background()
	addr := freeAddr(t)

	serverTr, err := Connect(ctx, transport.ConnectOptions{Params: map[string]string{"listen": addr}})
	require.NoError(t, err)
	reg, err := serverTr.RegisterQueryable(ctx, "bench/echo", func(q transport.IncomingQuery) {
		_ = q.Responder.Send(ctx, append([]byte("echo:"), q.Payload...))
	})
	require.NoError(t, err)
	defer reg.Shutdown()

	time.Sleep(20 * time.Millisecond)

	clientTr, err := Connect(ctx, transport.ConnectOptions{Params: map[string]string{"endpoint": addr}})
	require.NoError(t, err)

	reqCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	reply, err := clientTr.Request(reqCtx, "bench/echo", []byte("ping"))
	require.NoError(t, err)
	require.Equal(t, "echo:ping", string(reply))
}

func TestDialTCPRetriesUntilListenerComesUp(t *testing.T) {
	ctx := context.Background()
	addr := freeAddr(t) // nothing listening on this address yet

	tr, err := Connect(ctx, transport.ConnectOptions{Params: map[string]string{"endpoint": addr}})
	require.NoError(t, err)

	go func() {
		time.Sleep(80 * time.Millisecond)
		ln, lerr := net.Listen("tcp", addr)
		if lerr != nil {
			return
		}
		defer ln.Close()
		conn, aerr := ln.Accept()
		if aerr == nil {
			conn.Close()
		}
	}()

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	conn, err := tr.(*Transport).dialTCP(reqCtx, addr)
	require.NoError(t, err)
	conn.Close()
}

func TestDialTCPGivesUpWhenContextExpires(t *testing.T) {
	ctx := context.Background()
	addr := freeAddr(t) // never comes up

	tr, err := Connect(ctx, transport.ConnectOptions{Params: map[string]string{"endpoint": addr}})
	require.NoError(t, err)

	reqCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = tr.(*Transport).dialTCP(reqCtx, addr)
	require.Error(t, err)
}
