// Package transport defines the engine-agnostic messaging contract shared
// by every adapter (mock, tcp, mqtt, redisx, natsx, amqpx, zenoh): publish,
// subscribe-with-callback, and request/reply with correlation.
package transport

import "context"

// Engine names a supported messaging fabric.
type Engine string

const (
	EngineZenoh Engine = "zenoh"
	EngineTCP   Engine = "tcp"
	EngineRedis Engine = "redis"
	EngineMQTT  Engine = "mqtt"
	EngineNATS  Engine = "nats"
	EngineAMQP  Engine = "amqp"
	EngineMock  Engine = "mock"
)

// ConnectOptions carries engine-specific connection parameters parsed from
// repeated --connect KEY=VALUE flags (and the --endpoint legacy alias).
type ConnectOptions struct {
	Params map[string]string
}

// Get returns the value for key and whether it was present.
func (o ConnectOptions) Get(key string) (string, bool) {
	if o.Params == nil {
		return "", false
	}
	v, ok := o.Params[key]
	return v, ok
}

// GetDefault returns the value for key, or def if absent.
func (o ConnectOptions) GetDefault(key, def string) string {
	if v, ok := o.Get(key); ok && v != "" {
		return v
	}
	return def
}

// MessageHandler is invoked for each message delivered to a subscription.
type MessageHandler func(subject string, payload []byte)

// QueryHandler is invoked for each incoming request delivered to a
// registered queryable.
type QueryHandler func(q IncomingQuery)

// IncomingQuery is one request delivered to a QueryHandler. The handler
// must call Responder.Send (and may call End) to complete it.
type IncomingQuery struct {
	Subject     string
	Payload     []byte
	Correlation string
	Responder   QueryResponder
}

// QueryResponder lets a queryable handler send a reply payload back to the
// requester that issued the matching IncomingQuery.
type QueryResponder interface {
	Send(ctx context.Context, payload []byte) error
	End() error
}

// Subscription represents one active subscribe() call.
type Subscription interface {
	Shutdown() error
}

// Publisher represents one dedicated publish handle for a topic.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
	Shutdown() error
}

// QueryRegistration represents one active register-queryable call.
type QueryRegistration interface {
	Shutdown() error
}

// Transport is the engine-agnostic contract every adapter implements.
type Transport interface {
	Subscribe(ctx context.Context, expr string, handler MessageHandler) (Subscription, error)
	CreatePublisher(ctx context.Context, topic string) (Publisher, error)
	Request(ctx context.Context, subject string, payload []byte) ([]byte, error)
	RegisterQueryable(ctx context.Context, subject string, handler QueryHandler) (QueryRegistration, error)
	Shutdown() error
	HealthCheck() error
}

// Connector builds a Transport for one Engine from ConnectOptions.
type Connector func(ctx context.Context, opts ConnectOptions) (Transport, error)
