// Package mock implements an in-process Transport backed by nothing but
// goroutines and channels, used for unit/end-to-end tests and for
// experimenting with role drivers without a real broker.
package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hpcclab/mq-bench-go/internal/transport"
)

func init() {
	transport.Register(transport.EngineMock, Connect)
}

// bus is a shared in-process message fabric. Multiple Transports connected
// with the same "bus" ConnectOptions key see each other's publishes.
type bus struct {
	mu          sync.Mutex
	subscribers map[string]map[string]transport.MessageHandler // subject -> id -> handler
	queryables  map[string]transport.QueryHandler               // subject -> handler (last registration wins)
}

func newBus() *bus {
	return &bus{
		subscribers: make(map[string]map[string]transport.MessageHandler),
		queryables:  make(map[string]transport.QueryHandler),
	}
}

var (
	busesMu sync.Mutex
	buses   = map[string]*bus{}
)

func getBus(name string) *bus {
	busesMu.Lock()
	defer busesMu.Unlock()
	b, ok := buses[name]
	if !ok {
		b = newBus()
		buses[name] = b
	}
	return b
}

// matches reports whether subject matches a subscribe expr. Supports an
// exact match or a "prefix/**" wildcard, mirroring the "/**" convention
// used by the zenoh-style key expressions elsewhere in this harness.
func matches(expr, subject string) bool {
	if expr == subject {
		return true
	}
	if strings.HasSuffix(expr, "/**") {
		prefix := strings.TrimSuffix(expr, "/**")
		return strings.HasPrefix(subject, prefix)
	}
	return false
}

func (b *bus) publish(subject string, payload []byte) {
	b.mu.Lock()
	var handlers []transport.MessageHandler
	for expr, subs := range b.subscribers {
		if matches(expr, subject) {
			for _, h := range subs {
				handlers = append(handlers, h)
			}
		}
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(subject, payload)
	}
}

func (b *bus) subscribe(expr string, handler transport.MessageHandler) string {
	id := uuid.NewString()
	b.mu.Lock()
	if b.subscribers[expr] == nil {
		b.subscribers[expr] = make(map[string]transport.MessageHandler)
	}
	b.subscribers[expr][id] = handler
	b.mu.Unlock()
	return id
}

func (b *bus) unsubscribe(expr, id string) {
	b.mu.Lock()
	delete(b.subscribers[expr], id)
	b.mu.Unlock()
}

func (b *bus) registerQueryable(subject string, handler transport.QueryHandler) {
	b.mu.Lock()
	b.queryables[subject] = handler
	b.mu.Unlock()
}

func (b *bus) unregisterQueryable(subject string) {
	b.mu.Lock()
	delete(b.queryables, subject)
	b.mu.Unlock()
}

func (b *bus) queryable(subject string) (transport.QueryHandler, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.queryables[subject]
	return h, ok
}

// Transport is the in-process Transport implementation.
type Transport struct {
	bus *bus
}

// Connect builds a mock Transport. ConnectOptions key "bus" selects which
// in-process bus to join (default "default"); transports sharing a bus
// name can talk to each other within the same process.
func Connect(ctx context.Context, opts transport.ConnectOptions) (transport.Transport, error) {
	name := opts.GetDefault("bus", "default")
	return &Transport{bus: getBus(name)}, nil
}

func (t *Transport) Subscribe(ctx context.Context, expr string, handler transport.MessageHandler) (transport.Subscription, error) {
	id := t.bus.subscribe(expr, handler)
	return &subscription{bus: t.bus, expr: expr, id: id}, nil
}

func (t *Transport) CreatePublisher(ctx context.Context, topic string) (transport.Publisher, error) {
	return &publisher{bus: t.bus, topic: topic}, nil
}

func (t *Transport) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	handler, ok := t.bus.queryable(subject)
	if !ok {
		return nil, transport.NewError(transport.KindRequest, "no queryable registered for "+subject, nil)
	}
	replyCh := make(chan []byte, 1)
	q := transport.IncomingQuery{
		Subject:     subject,
		Payload:     payload,
		Correlation: uuid.NewString(),
		Responder:   &responder{replyCh: replyCh},
	}
	handler(q)
	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return nil, transport.NewError(transport.KindTimeout, "request timed out", ctx.Err())
	}
}

func (t *Transport) RegisterQueryable(ctx context.Context, subject string, handler transport.QueryHandler) (transport.QueryRegistration, error) {
	t.bus.registerQueryable(subject, handler)
	return &queryRegistration{bus: t.bus, subject: subject}, nil
}

func (t *Transport) Shutdown() error { return nil }

func (t *Transport) HealthCheck() error { return nil }

type subscription struct {
	bus  *bus
	expr string
	id   string
}

func (s *subscription) Shutdown() error {
	s.bus.unsubscribe(s.expr, s.id)
	return nil
}

type publisher struct {
	bus   *bus
	topic string
}

func (p *publisher) Publish(ctx context.Context, payload []byte) error {
	p.bus.publish(p.topic, payload)
	return nil
}

func (p *publisher) Shutdown() error { return nil }

type queryRegistration struct {
	bus     *bus
	subject string
}

func (q *queryRegistration) Shutdown() error {
	q.bus.unregisterQueryable(q.subject)
	return nil
}

type responder struct {
	replyCh chan []byte
	done    bool
	mu      sync.Mutex
}

func (r *responder) Send(ctx context.Context, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return transport.NewError(transport.KindRequest, "responder already completed", nil)
	}
	r.done = true
	r.replyCh <- payload
	return nil
}

func (r *responder) End() error { return nil }
