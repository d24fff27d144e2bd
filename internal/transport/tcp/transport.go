package tcp

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/hpcclab/mq-bench-go/internal/transport"
	"github.com/hpcclab/mq-bench-go/pkg/log"
)

// reconnectAttemptsPerSecond/reconnectBurst bound how fast dialTCP retries
// a failed dial, via transport.ReconnectLimiter — TCP has no client
// library of its own doing this, unlike paho's AutoReconnect or nats.go's
// built-in reconnect loop.
const (
	reconnectAttemptsPerSecond = 5.0
	reconnectBurst             = 3
)

func init() {
	transport.Register(transport.EngineTCP, Connect)
}

// Transport is a broker-less raw-TCP adapter. Subscribers listen on
// ConnectOptions "listen" (default ":9000"); publishers dial
// ConnectOptions "endpoint" and frame every publish as one topic/payload
// frame per the wire format in framing.go. There is no subject-based
// fan-out inherent to TCP: every subscriber accepting a connection
// receives every frame sent on it, filtered locally against the subscribed
// expression.
type Transport struct {
	listenAddr string
	endpoint   string
	reconnect  *transport.ReconnectLimiter
}

// Connect builds a TCP Transport from the given options.
func Connect(ctx context.Context, opts transport.ConnectOptions) (transport.Transport, error) {
	return &Transport{
		listenAddr: opts.GetDefault("listen", ":9000"),
		endpoint:   opts.GetDefault("endpoint", "127.0.0.1:9000"),
		reconnect:  transport.NewReconnectLimiter(reconnectAttemptsPerSecond, reconnectBurst),
	}, nil
}

// dialTCP dials addr, retrying on failure at a rate bounded by t.reconnect
// until ctx is done. A freshly-started broker-less peer that hasn't
// started listening yet is the common case this smooths over.
func (t *Transport) dialTCP(ctx context.Context, addr string) (net.Conn, error) {
	var lastErr error
	for {
		if err := t.reconnect.Wait(ctx); err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, err
		}
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
}

func (t *Transport) Subscribe(ctx context.Context, expr string, handler transport.MessageHandler) (transport.Subscription, error) {
	ln, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return nil, transport.NewError(transport.KindSubscribe, "listen "+t.listenAddr, err)
	}
	sub := &subscription{ln: ln}
	go sub.acceptLoop(expr, handler)
	return sub, nil
}

func (t *Transport) CreatePublisher(ctx context.Context, topic string) (transport.Publisher, error) {
	conn, err := t.dialTCP(ctx, t.endpoint)
	if err != nil {
		return nil, transport.NewError(transport.KindPublish, "dial "+t.endpoint, err)
	}
	return &publisher{conn: conn, topic: topic}, nil
}

func (t *Transport) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	conn, err := t.dialTCP(ctx, t.endpoint)
	if err != nil {
		return nil, transport.NewError(transport.KindRequest, "dial "+t.endpoint, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := conn.Write(Frame(subject, payload)); err != nil {
		return nil, transport.NewError(transport.KindRequest, "write request frame", err)
	}
	_, reply, err := ReadFrame(conn)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, transport.NewError(transport.KindTimeout, "awaiting reply", err)
		}
		return nil, transport.NewError(transport.KindRequest, "read reply frame", err)
	}
	return reply, nil
}

func (t *Transport) RegisterQueryable(ctx context.Context, subject string, handler transport.QueryHandler) (transport.QueryRegistration, error) {
	ln, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return nil, transport.NewError(transport.KindSubscribe, "listen "+t.listenAddr, err)
	}
	reg := &queryRegistration{ln: ln}
	go reg.acceptLoop(subject, handler)
	return reg, nil
}

func (t *Transport) Shutdown() error   { return nil }
func (t *Transport) HealthCheck() error { return nil }

type subscription struct {
	ln   net.Listener
	wg   sync.WaitGroup
	once sync.Once
}

func (s *subscription) acceptLoop(expr string, handler transport.MessageHandler) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn, expr, handler)
		}()
	}
}

func (s *subscription) serveConn(conn net.Conn, expr string, handler transport.MessageHandler) {
	defer conn.Close()
	for {
		topic, payload, err := ReadFrame(conn)
		if err != nil {
			if err != io.EOF {
				log.Debugf("tcp subscribe: connection closed: %v", err)
			}
			return
		}
		if matches(expr, topic) {
			handler(topic, payload)
		}
	}
}

func (s *subscription) Shutdown() error {
	s.once.Do(func() {
		s.ln.Close()
	})
	s.wg.Wait()
	return nil
}

type publisher struct {
	conn  net.Conn
	topic string
}

func (p *publisher) Publish(ctx context.Context, payload []byte) error {
	if _, err := p.conn.Write(Frame(p.topic, payload)); err != nil {
		return transport.NewError(transport.KindPublish, "write frame", err)
	}
	return nil
}

func (p *publisher) Shutdown() error {
	return p.conn.Close()
}

type queryRegistration struct {
	ln   net.Listener
	wg   sync.WaitGroup
	once sync.Once
}

func (q *queryRegistration) acceptLoop(subject string, handler transport.QueryHandler) {
	for {
		conn, err := q.ln.Accept()
		if err != nil {
			return
		}
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.serveConn(conn, subject, handler)
		}()
	}
}

func (q *queryRegistration) serveConn(conn net.Conn, subject string, handler transport.QueryHandler) {
	defer conn.Close()
	topic, payload, err := ReadFrame(conn)
	if err != nil {
		return
	}
	if !matches(subject, topic) {
		return
	}
	handler(transport.IncomingQuery{
		Subject:   topic,
		Payload:   payload,
		Responder: &responder{conn: conn, topic: topic},
	})
}

func (q *queryRegistration) Shutdown() error {
	q.once.Do(func() {
		q.ln.Close()
	})
	q.wg.Wait()
	return nil
}

type responder struct {
	conn  net.Conn
	topic string
}

func (r *responder) Send(ctx context.Context, payload []byte) error {
	_, err := r.conn.Write(Frame(r.topic, payload))
	return err
}

func (r *responder) End() error { return nil }

// matches applies the same exact/prefix-wildcard semantics as the mock
// adapter, so subscriber filtering behaves identically across engines.
func matches(expr, subject string) bool {
	if expr == subject {
		return true
	}
	const wildcardSuffix = "/**"
	if len(expr) >= len(wildcardSuffix) && expr[len(expr)-len(wildcardSuffix):] == wildcardSuffix {
		prefix := expr[:len(expr)-len(wildcardSuffix)]
		return len(subject) >= len(prefix) && subject[:len(prefix)] == prefix
	}
	return false
}
