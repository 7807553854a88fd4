package websocket

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vitalvas/sockit/transport"
)

// Config is the file representation of the Dialer settings.
//
//	origin: example.com
//	protocols: [chat]
//	callback_interval: 50ms
//	charset: utf-8
//	transport:
//	  keepalive: true
//	  keepalivetimeout: 30s
type Config struct {
	Origin           string            `yaml:"origin" mapstructure:"origin"`
	Protocols        []string          `yaml:"protocols" mapstructure:"protocols"`
	CallbackInterval time.Duration     `yaml:"callback_interval" mapstructure:"callback_interval"`
	Charset          string            `yaml:"charset" mapstructure:"charset"`
	Transport        transport.Options `yaml:"transport" mapstructure:"transport"`
}

// ParseConfig decodes a YAML document. Unknown fields are rejected. An empty
// document yields the zero Config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("websocket: parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("websocket: load config: %w", err)
	}

	return ParseConfig(data)
}

// Validate reports whether the config can be turned into options.
func (c *Config) Validate() error {
	if c.CallbackInterval < 0 {
		return ErrBadInterval
	}

	if _, err := ParseCharset(c.Charset); err != nil {
		return err
	}

	return nil
}

// Dialer returns a Dialer configured from c. Protocols are not part of the
// Dialer, pass them to Dial.
func (c *Config) Dialer() (*Dialer, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	charset, _ := ParseCharset(c.Charset)

	return &Dialer{
		TransportOptions: c.Transport,
		Origin:           c.Origin,
		CallbackInterval: c.CallbackInterval,
		Charset:          charset,
	}, nil
}
