// Package natsx implements the Transport contract over NATS core
// pub/sub and request/reply, grounded on the connection and subscription
// handling style of the teacher's pkg/nats client wrapper.
package natsx

import (
	"context"
	"fmt"

	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/nats-io/nats.go"
)

func init() {
	transport.Register(transport.EngineNATS, Connect)
}

// Transport wraps a single shared *nats.Conn. NATS core already has
// request/reply with an implicit inbox-based reply subject, so unlike mqtt
// and redisx this adapter needs no manual envelope.
type Transport struct {
	conn *nats.Conn
}

// Connect reads "url" (default nats://127.0.0.1:4222) from opts, falling
// back to host/port if url is absent.
func Connect(ctx context.Context, opts transport.ConnectOptions) (transport.Transport, error) {
	url := opts.GetDefault("url", "")
	if url == "" {
		host := opts.GetDefault("host", "127.0.0.1")
		port := opts.GetDefault("port", "4222")
		url = fmt.Sprintf("nats://%s:%s", host, port)
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, transport.NewError(transport.KindConnect, "NATS connect failed", err)
	}
	return &Transport{conn: conn}, nil
}

func (t *Transport) Subscribe(ctx context.Context, expr string, handler transport.MessageHandler) (transport.Subscription, error) {
	sub, err := t.conn.Subscribe(toNatsSubject(expr), func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return nil, transport.NewError(transport.KindSubscribe, "NATS subscribe failed", err)
	}
	return &subscription{sub: sub}, nil
}

func (t *Transport) CreatePublisher(ctx context.Context, topic string) (transport.Publisher, error) {
	return &publisher{conn: t.conn, topic: topic}, nil
}

func (t *Transport) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	msg, err := t.conn.RequestWithContext(ctx, subject, payload)
	if err != nil {
		if err == nats.ErrTimeout || ctx.Err() != nil {
			return nil, transport.NewError(transport.KindTimeout, "NATS request timed out", err)
		}
		return nil, transport.NewError(transport.KindRequest, "NATS request failed", err)
	}
	return msg.Data, nil
}

func (t *Transport) RegisterQueryable(ctx context.Context, subject string, handler transport.QueryHandler) (transport.QueryRegistration, error) {
	sub, err := t.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(transport.IncomingQuery{
			Subject:   msg.Subject,
			Payload:   msg.Data,
			Responder: &responder{msg: msg},
		})
	})
	if err != nil {
		return nil, transport.NewError(transport.KindSubscribe, "NATS register queryable failed", err)
	}
	return &queryRegistration{sub: sub}, nil
}

func (t *Transport) Shutdown() error {
	t.conn.Close()
	return nil
}

func (t *Transport) HealthCheck() error {
	if !t.conn.IsConnected() {
		return transport.NewError(transport.KindDisconnected, "NATS connection not active", nil)
	}
	return nil
}

type subscription struct {
	sub *nats.Subscription
}

func (s *subscription) Shutdown() error {
	return s.sub.Unsubscribe()
}

type publisher struct {
	conn  *nats.Conn
	topic string
}

func (p *publisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.conn.Publish(p.topic, payload); err != nil {
		return transport.NewError(transport.KindPublish, "NATS publish failed", err)
	}
	return nil
}

func (p *publisher) Shutdown() error { return nil }

type queryRegistration struct {
	sub *nats.Subscription
}

func (q *queryRegistration) Shutdown() error {
	return q.sub.Unsubscribe()
}

type responder struct {
	msg *nats.Msg
}

func (r *responder) Send(ctx context.Context, payload []byte) error {
	return r.msg.Respond(payload)
}

func (r *responder) End() error { return nil }

// toNatsSubject translates the zenoh-style "/**" trailing wildcard into
// NATS's ">" multi-token wildcard, and a bare "*" segment maps unchanged
// since NATS already uses "*" for single-token wildcards.
func toNatsSubject(expr string) string {
	const suffix = "/**"
	if len(expr) >= len(suffix) && expr[len(expr)-len(suffix):] == suffix {
		return expr[:len(expr)-len(suffix)] + ".>"
	}
	return expr
}
