// Package amqpx implements the Transport contract over AMQP 0-9-1 using a
// single fanout exchange per key expression so pub/sub semantics match the
// other engines (every subscriber gets every message, independent of
// queue depth), plus a per-request reply queue for request/reply.
package amqpx

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/google/uuid"
	"github.com/hpcclab/mq-bench-go/internal/transport"
)

func init() {
	transport.Register(transport.EngineAMQP, Connect)
}

// Transport wraps a single shared *amqp.Connection plus one *amqp.Channel
// per operation, matching AMQP's recommendation against sharing channels
// across concurrent goroutines.
type Transport struct {
	conn *amqp.Connection
}

// Connect reads "host" (default 127.0.0.1), "port" (default 5672),
// "user"/"password" (default guest/guest), and "vhost" (default "/").
func Connect(ctx context.Context, opts transport.ConnectOptions) (transport.Transport, error) {
	host := opts.GetDefault("host", "127.0.0.1")
	port := opts.GetDefault("port", "5672")
	user := opts.GetDefault("user", "guest")
	password := opts.GetDefault("password", "guest")
	vhost := opts.GetDefault("vhost", "/")
	url := fmt.Sprintf("amqp://%s:%s@%s:%s%s", user, password, host, port, vhost)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, transport.NewError(transport.KindConnect, "amqp dial", err)
	}
	return &Transport{conn: conn}, nil
}

func exchangeName(expr string) string {
	return "mqb.fanout." + sanitize(expr)
}

func sanitize(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c == '/' || c == '*' {
			b[i] = '.'
		}
	}
	return string(b)
}

func (t *Transport) Subscribe(ctx context.Context, expr string, handler transport.MessageHandler) (transport.Subscription, error) {
	ch, err := t.conn.Channel()
	if err != nil {
		return nil, transport.NewError(transport.KindSubscribe, "amqp open channel", err)
	}
	ex := exchangeName(expr)
	if err := ch.ExchangeDeclare(ex, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, transport.NewError(transport.KindSubscribe, "amqp declare exchange", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, transport.NewError(transport.KindSubscribe, "amqp declare queue", err)
	}
	if err := ch.QueueBind(q.Name, "", ex, false, nil); err != nil {
		ch.Close()
		return nil, transport.NewError(transport.KindSubscribe, "amqp bind queue", err)
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, transport.NewError(transport.KindSubscribe, "amqp consume", err)
	}
	sub := &subscription{ch: ch, done: make(chan struct{})}
	go sub.consume(expr, deliveries, handler)
	return sub, nil
}

func (t *Transport) CreatePublisher(ctx context.Context, topic string) (transport.Publisher, error) {
	ch, err := t.conn.Channel()
	if err != nil {
		return nil, transport.NewError(transport.KindPublish, "amqp open channel", err)
	}
	ex := exchangeName(topic)
	if err := ch.ExchangeDeclare(ex, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, transport.NewError(transport.KindPublish, "amqp declare exchange", err)
	}
	return &publisher{ch: ch, exchange: ex}, nil
}

func (t *Transport) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	ch, err := t.conn.Channel()
	if err != nil {
		return nil, transport.NewError(transport.KindRequest, "amqp open channel", err)
	}
	defer ch.Close()

	replyQueue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return nil, transport.NewError(transport.KindRequest, "amqp declare reply queue", err)
	}
	deliveries, err := ch.Consume(replyQueue.Name, "", true, true, false, false, nil)
	if err != nil {
		return nil, transport.NewError(transport.KindRequest, "amqp consume reply queue", err)
	}

	corrID := uuid.NewString()
	if err := ch.PublishWithContext(ctx, "", subject, false, false, amqp.Publishing{
		CorrelationId: corrID,
		ReplyTo:       replyQueue.Name,
		Body:          payload,
	}); err != nil {
		return nil, transport.NewError(transport.KindRequest, "amqp publish request", err)
	}

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return nil, transport.NewError(transport.KindDisconnected, "amqp reply channel closed", nil)
			}
			if d.CorrelationId != corrID {
				continue
			}
			return d.Body, nil
		case <-ctx.Done():
			return nil, transport.NewError(transport.KindTimeout, "amqp request timed out", ctx.Err())
		}
	}
}

func (t *Transport) RegisterQueryable(ctx context.Context, subject string, handler transport.QueryHandler) (transport.QueryRegistration, error) {
	ch, err := t.conn.Channel()
	if err != nil {
		return nil, transport.NewError(transport.KindSubscribe, "amqp open channel", err)
	}
	if _, err := ch.QueueDeclare(subject, false, false, false, false, nil); err != nil {
		ch.Close()
		return nil, transport.NewError(transport.KindSubscribe, "amqp declare request queue", err)
	}
	deliveries, err := ch.Consume(subject, "", true, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, transport.NewError(transport.KindSubscribe, "amqp consume request queue", err)
	}
	reg := &queryRegistration{ch: ch, done: make(chan struct{})}
	go reg.consume(subject, deliveries, handler)
	return reg, nil
}

func (t *Transport) Shutdown() error {
	return t.conn.Close()
}

func (t *Transport) HealthCheck() error {
	if t.conn.IsClosed() {
		return transport.NewError(transport.KindDisconnected, "amqp connection closed", nil)
	}
	return nil
}

type subscription struct {
	ch   *amqp.Channel
	done chan struct{}
}

func (s *subscription) consume(expr string, deliveries <-chan amqp.Delivery, handler transport.MessageHandler) {
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			handler(expr, d.Body)
		case <-s.done:
			return
		}
	}
}

func (s *subscription) Shutdown() error {
	close(s.done)
	return s.ch.Close()
}

type publisher struct {
	ch       *amqp.Channel
	exchange string
}

func (p *publisher) Publish(ctx context.Context, payload []byte) error {
	if err := p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{Body: payload}); err != nil {
		return transport.NewError(transport.KindPublish, "amqp publish", err)
	}
	return nil
}

func (p *publisher) Shutdown() error {
	return p.ch.Close()
}

type queryRegistration struct {
	ch   *amqp.Channel
	done chan struct{}
}

func (q *queryRegistration) consume(subject string, deliveries <-chan amqp.Delivery, handler transport.QueryHandler) {
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			handler(transport.IncomingQuery{
				Subject:     subject,
				Payload:     d.Body,
				Correlation: d.CorrelationId,
				Responder:   &responder{ch: q.ch, replyTo: d.ReplyTo, correlationID: d.CorrelationId},
			})
		case <-q.done:
			return
		}
	}
}

func (q *queryRegistration) Shutdown() error {
	close(q.done)
	return q.ch.Close()
}

type responder struct {
	ch            *amqp.Channel
	replyTo       string
	correlationID string
}

func (r *responder) Send(ctx context.Context, payload []byte) error {
	return r.ch.PublishWithContext(ctx, "", r.replyTo, false, false, amqp.Publishing{
		CorrelationId: r.correlationID,
		Body:          payload,
	})
}

func (r *responder) End() error { return nil }
