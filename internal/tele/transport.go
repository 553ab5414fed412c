package tele

import (
	"github.com/juju/errors"
	"github.com/temoto/tbdevice/log2"
	tele_api "github.com/temoto/tbdevice/tele"
	tele_config "github.com/temoto/tbdevice/tele/config"
	tele_mqtt "github.com/temoto/tbdevice/tele/mqtt"
	tele_rest "github.com/temoto/tbdevice/tele/rest"
)

// NewTransport builds backend selected by config.Backend.
func NewTransport(config tele_config.Config, log *log2.Log) (tele_api.Transporter, error) {
	switch config.Backend {
	case tele_config.BackendMqtt, "":
		return tele_mqtt.New(tele_mqtt.Options{
			ClientId:       config.ClientId,
			TlsCaFile:      config.TlsCaFile,
			Keepalive:      config.Keepalive(),
			NetworkTimeout: config.NetworkTimeout(),
			InboxDepth:     config.InboxDepth,
		}, log), nil

	case tele_config.BackendHttp:
		return tele_rest.New(tele_rest.Options{
			NetworkTimeout: config.NetworkTimeout(),
		}, log), nil

	case tele_config.BackendNoop:
		return &tele_api.Noop{Log: log}, nil
	}
	return nil, errors.Annotatef(tele_api.ErrInvalidConfiguration, "backend=%s", config.Backend)
}

// NewFromConfig is New with transport selected by config.
func NewFromConfig(config tele_config.Config, log *log2.Log) (*Client, error) {
	config.Defaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Annotate(err, "tele config")
	}
	transport, err := NewTransport(config, log)
	if err != nil {
		return nil, err
	}
	return New(transport, config, log)
}
