package tele

import (
	"context"

	"github.com/stretchr/testify/mock"
	tele_api "github.com/temoto/tbdevice/tele"
)

// transportMock records calls, payload is recorded as string because
// client reuses encoder buffer.
type transportMock struct {
	mock.Mock
	fn tele_api.MessageFunc
}

var _ tele_api.Transporter = &transportMock{}

func (self *transportMock) Connect(ctx context.Context, ep tele_api.Endpoint) error {
	return self.Called(ep).Error(0)
}
func (self *transportMock) Disconnect()     { self.Called() }
func (self *transportMock) Connected() bool { return self.Called().Bool(0) }

func (self *transportMock) Publish(ctx context.Context, topic string, payload []byte) error {
	return self.Called(topic, string(payload)).Error(0)
}

func (self *transportMock) Subscribe(filter string, fn tele_api.MessageFunc) error {
	err := self.Called(filter).Error(0)
	if err == nil {
		self.fn = fn
	}
	return err
}

func (self *transportMock) Unsubscribe(filter string) error {
	return self.Called(filter).Error(0)
}

func (self *transportMock) Pump(ctx context.Context) { self.Called() }

// deliver simulates inbound message from Pump, as transport still would after client lost interest.
func (self *transportMock) deliver(ctx context.Context, topic string, payload string) {
	if self.fn != nil {
		self.fn(ctx, topic, []byte(payload))
	}
}
