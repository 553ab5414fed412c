package tele

import (
	"context"

	"github.com/temoto/tbdevice/log2"
)

// Noop transport accepts everything and only logs published payloads.
// Used for dry runs and when backend="noop".
type Noop struct {
	Log       *log2.Log
	connected bool
}

var _ Transporter = &Noop{} // compile-time interface test

func (self *Noop) Connect(ctx context.Context, ep Endpoint) error {
	if err := ep.Validate(); err != nil {
		return err
	}
	self.connected = true
	return nil
}

func (self *Noop) Disconnect()     { self.connected = false }
func (self *Noop) Connected() bool { return self.connected }

func (self *Noop) Publish(ctx context.Context, topic string, payload []byte) error {
	if !self.connected {
		return ErrNotConnected
	}
	self.Log.Debugf("noop publish topic=%s payload=%s", topic, payload)
	return nil
}

func (*Noop) Subscribe(string, MessageFunc) error { return nil }
func (*Noop) Unsubscribe(string) error            { return nil }
func (*Noop) Pump(context.Context)                {}
