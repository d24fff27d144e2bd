package transport

import (
	"context"
	"fmt"
)

// registry maps an Engine name to the Connector that builds it. Adapter
// packages register themselves via Register from an init() func so
// cmd/mq-bench only needs to blank-import the adapters it wants compiled
// in.
var registry = map[Engine]Connector{}

// Register makes a Connector available under name. Adapter packages call
// this from init().
func Register(name Engine, c Connector) {
	registry[name] = c
}

// Connect dispatches to the Connector registered for engine.
func Connect(ctx context.Context, engine Engine, opts ConnectOptions) (Transport, error) {
	c, ok := registry[engine]
	if !ok {
		return nil, NewError(KindConnect, fmt.Sprintf("engine %q not registered (adapter not imported)", engine), nil)
	}
	return c(ctx, opts)
}

// ParseEngine maps a lowercase CLI string to an Engine, per the original
// harness's recognized engine names.
func ParseEngine(s string) (Engine, error) {
	switch s {
	case "zenoh":
		return EngineZenoh, nil
	case "tcp":
		return EngineTCP, nil
	case "redis":
		return EngineRedis, nil
	case "mqtt":
		return EngineMQTT, nil
	case "nats":
		return EngineNATS, nil
	case "amqp":
		return EngineAMQP, nil
	case "mock":
		return EngineMock, nil
	default:
		return "", fmt.Errorf("transport: unknown engine %q", s)
	}
}
