package tele

import (
	"context"

	"github.com/juju/errors"
	tele_api "github.com/temoto/tbdevice/tele"
	"github.com/temoto/tbdevice/tele/codec"
)

// Unsubscribed -> RPCSubscribe -> Subscribed -> RPCUnsubscribe or Connect -> Unsubscribed
type rpcState struct {
	subscribed bool
	callbacks  []tele_api.Callback
}

// RPCSubscribe replaces handler table, fails when already subscribed.
// First callback with exactly matching method wins.
func (self *Client) RPCSubscribe(callbacks []tele_api.Callback) error {
	if self.rpc.subscribed {
		return errors.Annotate(tele_api.ErrAlreadySubscribed, "RPC subscribe")
	}
	if err := self.transport.Subscribe(tele_api.TopicRPCRequestFilter, self.onRPCMessage); err != nil {
		self.log.Errorf("RPC subscribe err=%v", err)
		return errors.Annotate(err, "RPC subscribe")
	}
	self.rpc.subscribed = true
	self.rpc.callbacks = make([]tele_api.Callback, len(callbacks))
	copy(self.rpc.callbacks, callbacks)
	return nil
}

// RPCUnsubscribe forgets handlers even if transport fails to unsubscribe.
func (self *Client) RPCUnsubscribe() error {
	self.rpcReset()
	if err := self.transport.Unsubscribe(tele_api.TopicRPCRequestFilter); err != nil {
		return errors.Annotate(err, "RPC unsubscribe")
	}
	return nil
}

func (self *Client) RPCSubscribed() bool { return self.rpc.subscribed }

func (self *Client) rpcReset() {
	self.rpc = rpcState{}
}

func (self *Client) onRPCMessage(ctx context.Context, topic string, payload []byte) {
	if !self.rpc.subscribed {
		return
	}
	err := self.processRPC(ctx, topic, payload)
	if err == nil {
		self.stat.RPCHandled++
		return
	}
	self.stat.RPCDropped++
	if errors.Cause(err) == tele_api.ErrNoMatchingHandler {
		self.log.Debug(err.Error())
	} else {
		self.log.Error(err)
	}
}

// processRPC returns reason why request was dropped.
func (self *Client) processRPC(ctx context.Context, topic string, payload []byte) error {
	obj, err := codec.DecodeObject(payload, self.enc.MaxFields())
	if err != nil {
		return errors.Annotatef(tele_api.ErrDecode, "topic=%s: %v", topic, err)
	}
	method, ok := obj.String("method")
	if !ok {
		return errors.Annotatef(tele_api.ErrMissingMethod, "topic=%s", topic)
	}
	self.log.Debugf("received RPC method=%s", method)

	h := self.rpcHandler(method)
	if h == nil {
		return errors.Annotatef(tele_api.ErrNoMatchingHandler, "method=%s", method)
	}
	raw, ok := obj.Get("params")
	if !ok {
		self.log.Debugf("no parameters passed with RPC method=%s, passing none", method)
	}
	self.log.Debugf("calling RPC method=%s", method)
	reply := h.HandleRPC(ctx, tele_api.NewParams(raw))

	b, err := self.enc.EncodeOne(reply)
	if err != nil {
		return errors.Annotatef(err, "RPC method=%s reply", method)
	}
	responseTopic := tele_api.RPCResponseTopic(topic)
	self.log.Debugf("RPC response topic=%s payload=%s", responseTopic, b)
	return errors.Annotatef(self.transport.Publish(ctx, responseTopic, b), "RPC method=%s reply", method)
}

func (self *Client) rpcHandler(method string) tele_api.Handler {
	for _, cb := range self.rpc.callbacks {
		if cb.Method != method || cb.Handler == nil {
			continue
		}
		if f, ok := cb.Handler.(tele_api.HandlerFunc); ok && f == nil {
			continue
		}
		return cb.Handler
	}
	return nil
}
