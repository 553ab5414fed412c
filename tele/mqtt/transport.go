// Package mqtt is persistent session transport over paho MQTT client.
// Inbound messages are queued by paho goroutines into bounded inbox
// and delivered to subscribers only from Pump, on caller goroutine.
package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/256dpi/gomqtt/topic"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/temoto/tbdevice/log2"
	"github.com/temoto/tbdevice/tele"
)

const (
	DefaultPort           = 1883
	DefaultClientId       = "TbDev"
	DefaultInboxDepth     = 8
	DefaultNetworkTimeout = 30 * time.Second

	qos             = 0
	disconnectQuiet = 250 // ms
)

type Options struct {
	ClientId       string
	TlsCaFile      string
	Keepalive      time.Duration
	NetworkTimeout time.Duration
	InboxDepth     int

	// test code sets NewClient
	NewClient func(*paho.ClientOptions) paho.Client
}

type inbound struct {
	topic   string
	payload []byte
}

type subscription struct {
	filter string
	fn     tele.MessageFunc
}

type Transport struct { //nolint:maligned
	opt   Options
	log   *log2.Log
	m     paho.Client
	inbox chan inbound
	subs  *topic.Tree // *subscription
}

var _ tele.Transporter = &Transport{} // compile-time interface test

// SetPahoLog points paho package loggers at log.
// Package global, call once at startup.
func SetPahoLog(log *log2.Log, debug bool) {
	mqttLog := log.Clone(log2.LError)
	mqttLog.SetPrefix("mqtt: ")
	paho.CRITICAL = mqttLog.Printer(log2.LError)
	paho.ERROR = mqttLog.Printer(log2.LError)
	if debug {
		mqttLog.SetLevel(log2.LDebug)
		paho.WARN = mqttLog.Printer(log2.LDebug)
		paho.DEBUG = mqttLog.Printer(log2.LDebug)
	}
}

func New(opt Options, log *log2.Log) *Transport {
	if opt.ClientId == "" {
		opt.ClientId = DefaultClientId
	}
	if opt.InboxDepth <= 0 {
		opt.InboxDepth = DefaultInboxDepth
	}
	if opt.NetworkTimeout <= 0 {
		opt.NetworkTimeout = DefaultNetworkTimeout
	}
	if opt.Keepalive <= 0 {
		opt.Keepalive = opt.NetworkTimeout * 2
	}
	if opt.NewClient == nil {
		opt.NewClient = paho.NewClient
	}

	return &Transport{
		opt:   opt,
		log:   log,
		inbox: make(chan inbound, opt.InboxDepth),
		subs:  topic.NewStandardTree(),
	}
}

// Connect drops previous session with its subscriptions and pending inbox.
func (self *Transport) Connect(ctx context.Context, ep tele.Endpoint) error {
	if err := ep.Validate(); err != nil {
		return err
	}
	if self.m != nil {
		self.Disconnect()
	}

	mopt, err := self.clientOptions(ep)
	if err != nil {
		return err
	}
	self.inbox = make(chan inbound, self.opt.InboxDepth)
	self.subs = topic.NewStandardTree()

	self.log.Debugf("mqtt connect %s client_id=%s", ep.String(), self.opt.ClientId)
	m := self.opt.NewClient(mopt)
	if err := self.tokenWait(m.Connect(), "connect"); err != nil {
		return err
	}
	self.m = m
	self.log.Infof("mqtt connected %s", ep.String())
	return nil
}

func (self *Transport) Disconnect() {
	if self.m == nil {
		return
	}
	self.m.Disconnect(disconnectQuiet)
	self.m = nil
	self.subs = topic.NewStandardTree()
	self.log.Debugf("mqtt disconnected")
}

func (self *Transport) Connected() bool {
	return self.m != nil && self.m.IsConnected()
}

// Publish copies payload, caller may reuse buffer after return.
func (self *Transport) Publish(ctx context.Context, channel string, payload []byte) error {
	if !self.Connected() {
		return errors.Annotatef(tele.ErrNotConnected, "mqtt publish topic=%s", channel)
	}
	b := make([]byte, len(payload))
	copy(b, payload)
	self.log.Debugf("mqtt publish topic=%s payload=%s", channel, b)
	return self.tokenWait(self.m.Publish(channel, qos, false, b), "publish:"+channel)
}

func (self *Transport) Subscribe(filter string, fn tele.MessageFunc) error {
	if !self.Connected() {
		return errors.Annotatef(tele.ErrNotConnected, "mqtt subscribe filter=%s", filter)
	}
	if err := self.tokenWait(self.m.Subscribe(filter, qos, self.onMessage), "subscribe:"+filter); err != nil {
		return err
	}
	self.subs.Empty(filter)
	self.subs.Add(filter, &subscription{filter: filter, fn: fn})
	return nil
}

// Unsubscribe stops local routing first, so queued messages for filter are dropped by Pump.
func (self *Transport) Unsubscribe(filter string) error {
	self.subs.Empty(filter)
	if !self.Connected() {
		return nil
	}
	return self.tokenWait(self.m.Unsubscribe(filter), "unsubscribe:"+filter)
}

// Pump delivers queued inbound messages without blocking.
func (self *Transport) Pump(ctx context.Context) {
	for {
		select {
		case msg := <-self.inbox:
			self.route(ctx, msg)
		case <-ctx.Done():
			return
		default:
			return
		}
	}
}

func (self *Transport) route(ctx context.Context, msg inbound) {
	subs := self.subs.Match(msg.topic)
	if len(subs) == 0 {
		self.log.Debugf("mqtt no subscriber topic=%s", msg.topic)
		return
	}
	for _, x := range subs {
		x.(*subscription).fn(ctx, msg.topic, msg.payload)
	}
}

// runs on paho goroutine
func (self *Transport) onMessage(_ paho.Client, msg paho.Message) {
	select {
	case self.inbox <- inbound{topic: msg.Topic(), payload: msg.Payload()}:
		msg.Ack()
	default:
		self.log.Errorf("mqtt inbox full depth=%d, dropped topic=%s", cap(self.inbox), msg.Topic())
	}
}

func (self *Transport) onConnectionLost(_ paho.Client, err error) {
	self.log.Errorf("mqtt connection lost: %v", err)
}

func (self *Transport) clientOptions(ep tele.Endpoint) (*paho.ClientOptions, error) {
	scheme := "tcp"
	if ep.TLS {
		scheme = "ssl"
	}
	broker := fmt.Sprintf("%s://%s", scheme, ep.Address(DefaultPort))

	mopt := paho.NewClientOptions().
		AddBroker(broker).
		SetAutoReconnect(false).
		SetCleanSession(true).
		SetClientID(self.opt.ClientId).
		SetUsername(ep.AccessToken).
		SetConnectTimeout(self.opt.NetworkTimeout).
		SetConnectionLostHandler(self.onConnectionLost).
		SetDefaultPublishHandler(self.onMessage).
		SetKeepAlive(self.opt.Keepalive).
		SetOrderMatters(true).
		SetPingTimeout(self.opt.NetworkTimeout).
		SetWriteTimeout(self.opt.NetworkTimeout)

	if ep.TLS {
		tlsconf := &tls.Config{ServerName: ep.Host}
		if self.opt.TlsCaFile != "" {
			cabytes, err := ioutil.ReadFile(self.opt.TlsCaFile)
			if err != nil {
				return nil, errors.Annotatef(tele.ErrInvalidConfiguration, "tls_ca_file: %v", err)
			}
			tlsconf.RootCAs = x509.NewCertPool()
			if !tlsconf.RootCAs.AppendCertsFromPEM(cabytes) {
				return nil, errors.Annotatef(tele.ErrInvalidConfiguration, "tls_ca_file=%s no certificates", self.opt.TlsCaFile)
			}
		}
		mopt.SetTLSConfig(tlsconf)
	}
	return mopt, nil
}

func (self *Transport) tokenWait(t paho.Token, tag string) error {
	if !t.WaitTimeout(self.opt.NetworkTimeout) {
		err := errors.Annotatef(tele.ErrTransport, "mqtt %s timeout", tag)
		self.log.Error(err)
		return err
	}
	if err := t.Error(); err != nil {
		err = errors.Annotatef(tele.ErrTransport, "mqtt %s: %v", tag, err)
		self.log.Error(err)
		return err
	}
	return nil
}
