package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/256dpi/gomqtt/topic"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
)

type MqttMock struct {
	sync.Mutex
	Opt        *paho.ClientOptions
	Pub        chan MockMsg
	ConnectErr error
	connected  bool
	subs       map[string]*MockSub
}
type MockSub struct {
	Pattern string
	Qos     byte
	Handler paho.MessageHandler
}

func NewMqttMock() *MqttMock {
	return &MqttMock{
		Pub:  make(chan MockMsg, 32),
		subs: make(map[string]*MockSub),
	}
}

func (self *MqttMock) MockNew(opt *paho.ClientOptions) paho.Client {
	self.Opt = opt
	return self
}

// TestPublish simulates broker delivery to matching subscriptions.
func (self *MqttMock) TestPublish(t testing.TB, topicName string, payload []byte) {
	self.Lock()
	tree := topic.NewStandardTree()
	for _, sub := range self.subs {
		tree.Add(sub.Pattern, sub)
	}
	self.Unlock()

	matched := tree.Match(topicName)
	if len(matched) == 0 {
		t.Errorf("not subscribed for topic=%s", topicName)
		return
	}
	for _, x := range matched {
		sub := x.(*MockSub)
		msg := MockMsg{T: topicName, P: payload, acked: make(chan struct{})}
		sub.Handler(self, msg)
	}
}

func (self *MqttMock) Subscribed(pattern string) bool {
	self.Lock()
	defer self.Unlock()
	_, ok := self.subs[pattern]
	return ok
}

func (self *MqttMock) Disconnect(uint) {
	self.Lock()
	self.connected = false
	self.Unlock()
}
func (self *MqttMock) IsConnected() bool {
	self.Lock()
	defer self.Unlock()
	return self.connected
}
func (self *MqttMock) IsConnectionOpen() bool { return self.IsConnected() }

func (self *MqttMock) Connect() paho.Token {
	self.Lock()
	defer self.Unlock()
	self.connected = self.ConnectErr == nil
	return mockToken{self.ConnectErr}
}

func (self *MqttMock) Publish(topic string, qos byte, retain bool, payload interface{}) paho.Token {
	self.Pub <- MockMsg{T: topic, P: payload.([]byte)}
	return mockToken{nil}
}

func (self *MqttMock) Subscribe(pattern string, qos byte, handler paho.MessageHandler) paho.Token {
	self.Lock()
	self.subs[pattern] = &MockSub{pattern, qos, handler}
	self.Unlock()
	return mockToken{nil}
}

func (self *MqttMock) Unsubscribe(patterns ...string) paho.Token {
	self.Lock()
	for _, p := range patterns {
		delete(self.subs, p)
	}
	self.Unlock()
	return mockToken{nil}
}

func (self *MqttMock) AddRoute(string, paho.MessageHandler) { panic("not implemented") }

func (self *MqttMock) OptionsReader() paho.ClientOptionsReader {
	panic("not implemented")
}

func (self *MqttMock) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	panic("not implemented")
}

type mockToken struct{ error }

func (tok mockToken) Error() error                   { return tok.error }
func (tok mockToken) Wait() bool                     { return !errors.IsTimeout(tok.error) }
func (tok mockToken) WaitTimeout(time.Duration) bool { return !errors.IsTimeout(tok.error) }

type MockMsg struct {
	T     string
	P     []byte
	acked chan struct{}
}

func (msg MockMsg) Ack() {
	if msg.acked != nil {
		close(msg.acked)
	}
}

func (msg MockMsg) Duplicate() bool   { return false }
func (msg MockMsg) MessageID() uint16 { return 0 }
func (msg MockMsg) Payload() []byte   { return msg.P }
func (msg MockMsg) Qos() byte         { return 0 }
func (msg MockMsg) Retained() bool    { return false }
func (msg MockMsg) Topic() string     { return msg.T }
