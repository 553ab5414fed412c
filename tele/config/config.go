// Separate package is workaround to import cycles.
package tele_config

import (
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/tbdevice/helpers"
	"github.com/temoto/tbdevice/log2"
	"github.com/temoto/tbdevice/tele"
)

const (
	BackendMqtt = "mqtt"
	BackendHttp = "http"
	BackendNoop = "noop"

	DefaultClientId       = "TbDev"
	DefaultMqttPort       = 1883
	DefaultHttpPort       = 80
	DefaultInboxDepth     = 8
	DefaultNetworkTimeout = 30 * time.Second
	DefaultKeepalive      = 60 * time.Second
)

type Config struct { //nolint:maligned
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []Source `hcl:"include"`

	Backend           string `hcl:"backend"`
	Host              string `hcl:"host"`
	Port              int    `hcl:"port"`
	AccessToken       string `hcl:"access_token"` // secret
	TLS               bool   `hcl:"tls"`
	TlsCaFile         string `hcl:"tls_ca_file"`
	ClientId          string `hcl:"client_id"`
	PayloadSize       int    `hcl:"payload_size"`
	MaxFields         int    `hcl:"max_fields"`
	KeepaliveSec      int    `hcl:"keepalive_sec"`
	NetworkTimeoutSec int    `hcl:"network_timeout_sec"`
	InboxDepth        int    `hcl:"inbox_depth"`
	LogDebug          bool   `hcl:"log_debug"`
	MqttLogDebug      bool   `hcl:"mqtt_log_debug"`
}

type Source struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// Defaults fills zero fields.
func (c *Config) Defaults() {
	if c.Backend == "" {
		c.Backend = BackendMqtt
	}
	if c.ClientId == "" {
		c.ClientId = DefaultClientId
	}
	if c.PayloadSize == 0 {
		c.PayloadSize = tele.DefaultPayloadSize
	}
	if c.MaxFields == 0 {
		c.MaxFields = tele.DefaultMaxFields
	}
	if c.InboxDepth == 0 {
		c.InboxDepth = DefaultInboxDepth
	}
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	switch c.Backend {
	case BackendMqtt, BackendHttp, BackendNoop:
	default:
		errs = append(errs, errors.Annotatef(tele.ErrInvalidConfiguration, "backend=%s expected one of mqtt,http,noop", c.Backend))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, errors.Annotatef(tele.ErrInvalidConfiguration, "port=%d", c.Port))
	}
	if c.PayloadSize < 2 {
		errs = append(errs, errors.Annotatef(tele.ErrInvalidConfiguration, "payload_size=%d must be at least 2", c.PayloadSize))
	}
	if c.MaxFields < 1 {
		errs = append(errs, errors.Annotatef(tele.ErrInvalidConfiguration, "max_fields=%d must be at least 1", c.MaxFields))
	}
	if c.InboxDepth < 1 {
		errs = append(errs, errors.Annotatef(tele.ErrInvalidConfiguration, "inbox_depth=%d must be at least 1", c.InboxDepth))
	}
	if err := c.Endpoint().Validate(); err != nil {
		errs = append(errs, err)
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) Endpoint() tele.Endpoint {
	return tele.Endpoint{
		Host:        c.Host,
		Port:        uint16(c.Port),
		AccessToken: c.AccessToken,
		TLS:         c.TLS,
	}
}

func (c *Config) NetworkTimeout() time.Duration {
	return helpers.IntSecondDefault(c.NetworkTimeoutSec, DefaultNetworkTimeout)
}

func (c *Config) Keepalive() time.Duration {
	return helpers.IntSecondDefault(c.KeepaliveSec, DefaultKeepalive)
}

// Read parses single hcl document without includes, applies defaults.
func Read(b []byte) (*Config, error) {
	c := &Config{}
	if err := hcl.Unmarshal(b, c); err != nil {
		return nil, errors.Annotate(err, "config unmarshal")
	}
	if len(c.XXX_Include) != 0 {
		return nil, errors.NotSupportedf("config include from bytes")
	}
	c.Defaults()
	return c, nil
}

// ReadFile reads names in order, later sources override earlier.
// Sources may include other sources relative to directory of first name.
func ReadFile(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error ReadFile() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names = append([]string{name}, names[1:]...)
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, Source{Name: name}, &errs)
	}
	c.Defaults()
	return c, helpers.FoldErrors(errs)
}

func MustReadFile(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadFile(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}

func (c *Config) read(log *log2.Log, fs FullReader, source Source, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			*errs = append(*errs, errors.NotFoundf("config required name=%s path=%s", source.Name, norm))
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	if err = hcl.Unmarshal(bs, c); err != nil {
		// content may hold access token, not logged
		*errs = append(*errs, errors.Annotatef(err, "config unmarshal source=%s", source.Name))
		return
	}

	var includes []Source
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		if _, ok := c.includeSeen[fs.Normalize(include.Name)]; ok {
			*errs = append(*errs, errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name))
			continue
		}
		c.read(log, fs, include, errs)
	}
}
