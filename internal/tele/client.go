// Package tele is device client facade: bounded telemetry/attribute sends
// and server-side RPC dispatch over any tele.Transporter.
//
// Client contract:
// - single goroutine; inbound RPC handlers run only inside Loop()
// - every failure returns error with one of tele.Err* as errors.Cause and logs one line
// - failed send leaves client state unchanged
// - Connect always forgets RPC handlers, subscribe again after reconnect
package tele

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/tbdevice/log2"
	tele_api "github.com/temoto/tbdevice/tele"
	tele_config "github.com/temoto/tbdevice/tele/config"
)

type Client struct { //nolint:maligned
	config    tele_config.Config
	log       *log2.Log
	transport tele_api.Transporter
	enc       *tele_api.Encoder
	rpc       rpcState
	stat      Stat
}

func New(transport tele_api.Transporter, config tele_config.Config, log *log2.Log) (*Client, error) {
	if transport == nil {
		panic("code error tele.New transport=nil")
	}
	config.Defaults()
	enc, err := tele_api.NewEncoder(config.PayloadSize, config.MaxFields, log)
	if err != nil {
		return nil, errors.Annotate(err, "tele.New")
	}
	return &Client{
		config:    config,
		log:       log,
		transport: transport,
		enc:       enc,
	}, nil
}

func (self *Client) Config() tele_config.Config { return self.config }
func (self *Client) Stat() Stat                  { return self.stat }

// Connect to endpoint from config.
func (self *Client) Connect(ctx context.Context) error {
	return self.ConnectEndpoint(ctx, self.config.Endpoint())
}

func (self *Client) ConnectEndpoint(ctx context.Context, ep tele_api.Endpoint) error {
	self.rpcReset()
	if err := self.transport.Connect(ctx, ep); err != nil {
		self.log.Errorf("connect %s err=%v", ep.String(), err)
		return errors.Annotate(err, "connect")
	}
	return nil
}

func (self *Client) Disconnect()     { self.transport.Disconnect() }
func (self *Client) Connected() bool { return self.transport.Connected() }

// Loop delivers pending inbound messages, call it often.
func (self *Client) Loop(ctx context.Context) { self.transport.Pump(ctx) }

func (self *Client) SendTelemetry(v tele_api.Telemetry) error {
	return self.sendOne(tele_api.TopicTelemetry, v)
}

// SendTelemetryValues sends all values in one JSON object.
func (self *Client) SendTelemetryValues(vs []tele_api.Telemetry) error {
	return self.sendMany(tele_api.TopicTelemetry, vs)
}

// SendTelemetryJSON sends caller-provided JSON as is.
func (self *Client) SendTelemetryJSON(json []byte) error {
	return self.sendRaw(tele_api.TopicTelemetry, json)
}

func (self *Client) SendAttribute(v tele_api.Attribute) error {
	return self.sendOne(tele_api.TopicAttributes, v)
}

func (self *Client) SendAttributes(vs []tele_api.Attribute) error {
	return self.sendMany(tele_api.TopicAttributes, vs)
}

func (self *Client) SendAttributeJSON(json []byte) error {
	return self.sendRaw(tele_api.TopicAttributes, json)
}

func (self *Client) sendOne(channel string, v tele_api.Value) error {
	b, err := self.enc.EncodeOne(v)
	if err != nil {
		return errors.Annotatef(err, "send %s", channel)
	}
	return self.publish(channel, b)
}

func (self *Client) sendMany(channel string, vs []tele_api.Value) error {
	b, err := self.enc.Encode(vs)
	if err != nil {
		return errors.Annotatef(err, "send %s", channel)
	}
	return self.publish(channel, b)
}

func (self *Client) sendRaw(channel string, json []byte) error {
	if len(json) == 0 {
		self.log.Errorf("%s empty JSON", tele_api.ErrValueSerialization.Error())
		return errors.Annotatef(tele_api.ErrValueSerialization, "send %s empty JSON", channel)
	}
	if limit := self.enc.PayloadSize() - 1; len(json) > limit {
		self.log.Errorf("%s size=%d payload_size=%d", tele_api.ErrSerializationOverflow.Error(), len(json), self.enc.PayloadSize())
		return errors.Annotatef(tele_api.ErrSerializationOverflow, "send %s size=%d limit=%d", channel, len(json), limit)
	}
	return self.publish(channel, json)
}

func (self *Client) publish(channel string, payload []byte) error {
	if err := self.transport.Publish(context.Background(), channel, payload); err != nil {
		self.stat.PublishFailed++
		self.log.Errorf("publish %s err=%v", channel, err)
		return errors.Annotatef(err, "send %s", channel)
	}
	self.stat.Published++
	return nil
}
