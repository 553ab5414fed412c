// Package rest is stateless transport: one HTTP POST per publish.
package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/juju/errors"
	"github.com/temoto/tbdevice/log2"
	"github.com/temoto/tbdevice/tele"
)

const (
	DefaultPort           = 80
	DefaultNetworkTimeout = 30 * time.Second
)

type Options struct {
	NetworkTimeout time.Duration
	// test code sets RoundTripper
	RoundTripper http.RoundTripper
}

type Transport struct {
	opt       Options
	log       *log2.Log
	ep        tele.Endpoint
	connected bool
}

var _ tele.Transporter = &Transport{} // compile-time interface test

func New(opt Options, log *log2.Log) *Transport {
	if opt.NetworkTimeout <= 0 {
		opt.NetworkTimeout = DefaultNetworkTimeout
	}
	return &Transport{opt: opt, log: log}
}

// Connect only validates and remembers endpoint, no IO.
func (self *Transport) Connect(ctx context.Context, ep tele.Endpoint) error {
	if err := ep.Validate(); err != nil {
		return err
	}
	self.ep = ep
	self.connected = true
	return nil
}

func (self *Transport) Disconnect()     { self.connected = false }
func (self *Transport) Connected() bool { return self.connected }

func (self *Transport) Publish(ctx context.Context, channel string, payload []byte) error {
	if !self.connected {
		return errors.Annotatef(tele.ErrNotConnected, "http publish channel=%s", channel)
	}
	var path string
	switch channel {
	case tele.TopicTelemetry:
		path = "telemetry"
	case tele.TopicAttributes:
		path = "attributes"
	default:
		return errors.Annotatef(tele.ErrNotSupported, "http publish channel=%s", channel)
	}

	url := self.URL(path)
	self.log.Debugf("http post %s payload=%s", self.redact(url), payload)
	ctx, cancel := context.WithTimeout(ctx, self.opt.NetworkTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Annotatef(tele.ErrInvalidConfiguration, "http request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := self.client().Do(req)
	if err != nil {
		err = errors.Annotatef(tele.ErrTransport, "http post %s: %v", path, err)
		self.log.Error(err)
		return err
	}
	_, _ = io.Copy(ioutil.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = errors.Annotatef(tele.ErrTransport, "http post %s status=%d", path, resp.StatusCode)
		self.log.Error(err)
		return err
	}
	return nil
}

func (self *Transport) Subscribe(filter string, _ tele.MessageFunc) error {
	return errors.Annotatef(tele.ErrNotSupported, "http subscribe filter=%s", filter)
}

func (self *Transport) Unsubscribe(filter string) error {
	return errors.Annotatef(tele.ErrNotSupported, "http unsubscribe filter=%s", filter)
}

func (*Transport) Pump(context.Context) {}

// URL of device API resource, contains access token.
func (self *Transport) URL(resource string) string {
	scheme := "http"
	if self.ep.TLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v1/%s/%s", scheme, self.ep.Address(DefaultPort), self.ep.AccessToken, resource)
}

func (self *Transport) redact(url string) string {
	if self.ep.AccessToken == "" {
		return url
	}
	return string(bytes.Replace([]byte(url), []byte(self.ep.AccessToken), []byte("***"), 1))
}

// fresh connection per request
func (self *Transport) client() *http.Client {
	rt := self.opt.RoundTripper
	if rt == nil {
		rt = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			DisableKeepAlives: true,
		}
	}
	return &http.Client{
		Timeout:   self.opt.NetworkTimeout,
		Transport: rt,
	}
}
