package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/hpcclab/mq-bench-go/internal/transport"
)

func init() {
	transport.Register(transport.EngineMQTT, Connect)
}

const qosAtMostOnce = 0

// Transport is the MQTT adapter. MQTT has no native request/reply, so
// Request/RegisterQueryable synthesize correlation with a per-request
// reply topic envelope (see envelope.go), matching the original harness's
// rumqttc-based role.
type Transport struct {
	broker string
}

// Connect reads "host" (default 127.0.0.1), "port" (default 1883) from
// opts and builds a lazy MQTT Transport; individual client handles are
// created per Subscribe/CreatePublisher/Request/RegisterQueryable call,
// mirroring the original's one-client-per-role-handle design.
func Connect(ctx context.Context, opts transport.ConnectOptions) (transport.Transport, error) {
	host := opts.GetDefault("host", "127.0.0.1")
	port := opts.GetDefault("port", "1883")
	return &Transport{broker: fmt.Sprintf("tcp://%s:%s", host, port)}, nil
}

func (t *Transport) newClient(clientID string) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(t.broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, transport.NewError(transport.KindTimeout, "mqtt connect timed out", nil)
	}
	if err := token.Error(); err != nil {
		return nil, transport.NewError(transport.KindConnect, "mqtt connect", err)
	}
	return client, nil
}

func (t *Transport) Subscribe(ctx context.Context, expr string, handler transport.MessageHandler) (transport.Subscription, error) {
	client, err := t.newClient("mqb-sub-" + uuid.NewString())
	if err != nil {
		return nil, err
	}
	token := client.Subscribe(mapExpr(expr), qosAtMostOnce, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(10 * time.Second) {
		client.Disconnect(250)
		return nil, transport.NewError(transport.KindTimeout, "mqtt subscribe timed out", nil)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(250)
		return nil, transport.NewError(transport.KindSubscribe, "mqtt subscribe", err)
	}
	return &subscription{client: client}, nil
}

func (t *Transport) CreatePublisher(ctx context.Context, topic string) (transport.Publisher, error) {
	client, err := t.newClient("mqb-pub-" + uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &publisher{client: client, topic: topic}, nil
}

func (t *Transport) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	corrID := uuid.NewString()
	replyTopic := "mqb/replies/" + corrID

	subClient, err := t.newClient("mqb-req-" + corrID)
	if err != nil {
		return nil, err
	}
	defer subClient.Disconnect(250)

	replyCh := make(chan []byte, 1)
	subToken := subClient.Subscribe(replyTopic, qosAtMostOnce, func(_ paho.Client, msg paho.Message) {
		select {
		case replyCh <- msg.Payload():
		default:
		}
	})
	if !subToken.WaitTimeout(10*time.Second) || subToken.Error() != nil {
		return nil, transport.NewError(transport.KindRequest, "mqtt reply subscribe failed", subToken.Error())
	}

	pubClient, err := t.newClient("mqb-req-pub-" + corrID)
	if err != nil {
		return nil, err
	}
	defer pubClient.Disconnect(250)

	env := encodeRequestEnvelope(replyTopic, payload)
	pubToken := pubClient.Publish(subject, qosAtMostOnce, false, env)
	if !pubToken.WaitTimeout(10*time.Second) || pubToken.Error() != nil {
		return nil, transport.NewError(transport.KindRequest, "mqtt request publish failed", pubToken.Error())
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return nil, transport.NewError(transport.KindTimeout, "mqtt request timed out", ctx.Err())
	}
}

func (t *Transport) RegisterQueryable(ctx context.Context, subject string, handler transport.QueryHandler) (transport.QueryRegistration, error) {
	client, err := t.newClient("mqb-qry-" + uuid.NewString())
	if err != nil {
		return nil, err
	}
	token := client.Subscribe(subject, qosAtMostOnce, func(c paho.Client, msg paho.Message) {
		replyTopic, payload, derr := decodeRequestEnvelope(msg.Payload())
		if derr != nil {
			return
		}
		handler(transport.IncomingQuery{
			Subject:   msg.Topic(),
			Payload:   payload,
			Responder: &responder{client: c, topic: replyTopic},
		})
	})
	if !token.WaitTimeout(10 * time.Second) {
		client.Disconnect(250)
		return nil, transport.NewError(transport.KindTimeout, "mqtt register queryable timed out", nil)
	}
	if err := token.Error(); err != nil {
		client.Disconnect(250)
		return nil, transport.NewError(transport.KindSubscribe, "mqtt register queryable", err)
	}
	return &queryRegistration{client: client}, nil
}

func (t *Transport) Shutdown() error { return nil }

func (t *Transport) HealthCheck() error {
	client, err := t.newClient("mqb-health-" + uuid.NewString())
	if err != nil {
		return err
	}
	client.Disconnect(250)
	return nil
}

type subscription struct {
	client paho.Client
	once   sync.Once
}

func (s *subscription) Shutdown() error {
	s.once.Do(func() { s.client.Disconnect(250) })
	return nil
}

type publisher struct {
	client paho.Client
	topic  string
	once   sync.Once
}

func (p *publisher) Publish(ctx context.Context, payload []byte) error {
	token := p.client.Publish(p.topic, qosAtMostOnce, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return transport.NewError(transport.KindTimeout, "mqtt publish timed out", nil)
	}
	if err := token.Error(); err != nil {
		return transport.NewError(transport.KindPublish, "mqtt publish", err)
	}
	return nil
}

func (p *publisher) Shutdown() error {
	p.once.Do(func() { p.client.Disconnect(250) })
	return nil
}

type queryRegistration struct {
	client paho.Client
	once   sync.Once
}

func (q *queryRegistration) Shutdown() error {
	q.once.Do(func() { q.client.Disconnect(250) })
	return nil
}

type responder struct {
	client paho.Client
	topic  string
}

func (r *responder) Send(ctx context.Context, payload []byte) error {
	token := r.client.Publish(r.topic, qosAtMostOnce, false, payload)
	if !token.WaitTimeout(10 * time.Second) {
		return transport.NewError(transport.KindTimeout, "mqtt reply publish timed out", nil)
	}
	return token.Error()
}

func (r *responder) End() error { return nil }
