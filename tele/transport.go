package tele

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/errors"
)

const (
	TopicTelemetry        = "v1/devices/me/telemetry"
	TopicAttributes       = "v1/devices/me/attributes"
	TopicRPCRequestFilter = "v1/devices/me/rpc/request/+"

	rpcRequestSegment  = "request"
	rpcResponseSegment = "response"
)

// RPCResponseTopic replaces first "request" segment with "response",
// keeping request id and everything else intact.
func RPCResponseTopic(requestTopic string) string {
	parts := strings.Split(requestTopic, "/")
	for i, p := range parts {
		if p == rpcRequestSegment {
			parts[i] = rpcResponseSegment
			return strings.Join(parts, "/")
		}
	}
	return requestTopic
}

// Endpoint is collector address and device credentials.
type Endpoint struct {
	Host        string
	Port        uint16
	AccessToken string
	TLS         bool
}

func (e Endpoint) Validate() error {
	if e.Host == "" {
		return errors.Annotate(ErrInvalidConfiguration, "host is empty")
	}
	if e.AccessToken == "" {
		return errors.Annotate(ErrInvalidConfiguration, "access token is empty")
	}
	return nil
}

// Address is host:port, with given default port.
func (e Endpoint) Address(defaultPort uint16) string {
	port := e.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", e.Host, port)
}

func (e Endpoint) String() string {
	return fmt.Sprintf("host=%s port=%d tls=%t", e.Host, e.Port, e.TLS) // token is secret
}

// MessageFunc receives inbound message, only from Transporter.Pump.
type MessageFunc func(ctx context.Context, topic string, payload []byte)

// Transporter contract:
// - Connect fails with ErrInvalidConfiguration before any IO if endpoint is incomplete
// - Publish returns after transport accepted (not necessarily delivered) payload
// - inbound messages are delivered only inside Pump, on caller goroutine
// - backends without subscription support fail Subscribe/Unsubscribe with ErrNotSupported
type Transporter interface {
	Connect(ctx context.Context, ep Endpoint) error
	Disconnect()
	Connected() bool
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(filter string, fn MessageFunc) error
	Unsubscribe(filter string) error
	Pump(ctx context.Context)
}
