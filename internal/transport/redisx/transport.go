// Package redisx implements the Transport contract over Redis Pub/Sub,
// synthesizing request/reply with a per-request reply channel the same way
// the mqtt adapter does with a reply topic.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/redis/go-redis/v9"
)

func init() {
	transport.Register(transport.EngineRedis, Connect)
}

// Transport wraps a single shared *redis.Client; Redis's pub/sub model
// multiplexes subscriptions and publishes over that one connection pool.
type Transport struct {
	client *redis.Client
}

// Connect reads "host" (default 127.0.0.1) and "port" (default 6379) from
// opts. No "db" key is read; the client always uses database 0.
func Connect(ctx context.Context, opts transport.ConnectOptions) (transport.Transport, error) {
	host := opts.GetDefault("host", "127.0.0.1")
	port := opts.GetDefault("port", "6379")
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, transport.NewError(transport.KindConnect, "redis ping", err)
	}
	return &Transport{client: client}, nil
}

func (t *Transport) Subscribe(ctx context.Context, expr string, handler transport.MessageHandler) (transport.Subscription, error) {
	pubsub := t.client.PSubscribe(ctx, toRedisPattern(expr))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, transport.NewError(transport.KindSubscribe, "redis psubscribe", err)
	}
	sub := &subscription{pubsub: pubsub, done: make(chan struct{})}
	go sub.consume(handler)
	return sub, nil
}

func (t *Transport) CreatePublisher(ctx context.Context, topic string) (transport.Publisher, error) {
	return &publisher{client: t.client, topic: topic}, nil
}

func (t *Transport) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	replyChannel := "mqb:replies:" + uuid.NewString()
	pubsub := t.client.Subscribe(ctx, replyChannel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, transport.NewError(transport.KindRequest, "redis subscribe reply channel", err)
	}

	env := encodeEnvelope(replyChannel, payload)
	if err := t.client.Publish(ctx, subject, env).Err(); err != nil {
		return nil, transport.NewError(transport.KindRequest, "redis publish request", err)
	}

	ch := pubsub.Channel()
	select {
	case msg := <-ch:
		return []byte(msg.Payload), nil
	case <-ctx.Done():
		return nil, transport.NewError(transport.KindTimeout, "redis request timed out", ctx.Err())
	}
}

func (t *Transport) RegisterQueryable(ctx context.Context, subject string, handler transport.QueryHandler) (transport.QueryRegistration, error) {
	pubsub := t.client.Subscribe(ctx, subject)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, transport.NewError(transport.KindSubscribe, "redis subscribe queryable", err)
	}
	reg := &queryRegistration{pubsub: pubsub, done: make(chan struct{})}
	go reg.consume(t.client, subject, handler)
	return reg, nil
}

func (t *Transport) Shutdown() error {
	return t.client.Close()
}

func (t *Transport) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return t.client.Ping(ctx).Err()
}

type subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
}

func (s *subscription) consume(handler transport.MessageHandler) {
	ch := s.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			handler(msg.Channel, []byte(msg.Payload))
		case <-s.done:
			return
		}
	}
}

func (s *subscription) Shutdown() error {
	close(s.done)
	return s.pubsub.Close()
}

type publisher struct {
	client *redis.Client
	topic  string
}

func (p *publisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.client.Publish(ctx, p.topic, payload).Err(); err != nil {
		return transport.NewError(transport.KindPublish, "redis publish", err)
	}
	return nil
}

func (p *publisher) Shutdown() error { return nil }

type queryRegistration struct {
	pubsub *redis.PubSub
	done   chan struct{}
}

func (q *queryRegistration) consume(client *redis.Client, subject string, handler transport.QueryHandler) {
	ch := q.pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			replyChannel, payload, err := decodeEnvelope(msg.Payload)
			if err != nil {
				continue
			}
			handler(transport.IncomingQuery{
				Subject:   subject,
				Payload:   payload,
				Responder: &responder{client: client, channel: replyChannel},
			})
		case <-q.done:
			return
		}
	}
}

func (q *queryRegistration) Shutdown() error {
	close(q.done)
	return q.pubsub.Close()
}

type responder struct {
	client  *redis.Client
	channel string
}

func (r *responder) Send(ctx context.Context, payload []byte) error {
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *responder) End() error { return nil }

// toRedisPattern translates the zenoh-style "/**" trailing wildcard into
// Redis PSUBSCRIBE's "*" glob.
func toRedisPattern(expr string) string {
	const suffix = "/**"
	if len(expr) >= len(suffix) && expr[len(expr)-len(suffix):] == suffix {
		return expr[:len(expr)-len(suffix)] + "/*"
	}
	return expr
}
