// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircbot

import (
	"crypto/tls"
	"net"
	"os"
	"strings"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"github.com/c2nes/ircbot/lib/ircclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

const (
	defaultMaxLineLength  = "8K"
	defaultRequestTimeout = "30s"
	defaultDatastore      = "ircbot.db"
	defaultDialTimeout    = 30 * time.Second
)

// ServerConfig says where and how to connect.
type ServerConfig struct {
	Address       string
	TLS           bool
	VerifyTLS     *bool  `yaml:"verify-tls"`
	WebSocket     string `yaml:"websocket"`
	MaxLineLength string `yaml:"max-line-length"`
}

// IdentityConfig is the default identity, overridden by the stored profile.
type IdentityConfig struct {
	Nick         string
	FallbackNick string `yaml:"fallback-nick"`
	Username     string
	Realname     string
	Password     string
}

// FloodConfig throttles outbound lines.
type FloodConfig struct {
	Rate  float64
	Burst int
}

// ClientConfig tunes the IRC client.
type ClientConfig struct {
	MailboxSize    int    `yaml:"mailbox-size"`
	RequestTimeout string `yaml:"request-timeout"`
	Flood          FloodConfig
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level string
	JSON  bool `yaml:"json"`

	// Messages is a directory to write channel logs to. Empty disables
	// channel logging.
	Messages string
}

// Config defines a configuration file for ircbot
type Config struct {
	Network   string
	Server    ServerConfig
	Identity  IdentityConfig
	Channels  []string
	Owner     string
	Client    ClientConfig
	Logging   LoggingConfig
	Datastore string
	Metrics   string

	maxLineLength  int
	requestTimeout time.Duration
	logLevel       zerolog.Level
}

// LoadConfig returns a Config instance
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig reads a config from YAML, applying defaults.
func ParseConfig(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}

	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (conf *Config) setDefaults() {
	if conf.Server.VerifyTLS == nil {
		verify := true
		conf.Server.VerifyTLS = &verify
	}
	if conf.Server.MaxLineLength == "" {
		conf.Server.MaxLineLength = defaultMaxLineLength
	}
	if conf.Identity.FallbackNick == "" && conf.Identity.Nick != "" {
		conf.Identity.FallbackNick = conf.Identity.Nick + "_"
	}
	if conf.Identity.Username == "" {
		conf.Identity.Username = conf.Identity.Nick
	}
	if conf.Identity.Realname == "" {
		conf.Identity.Realname = Ver
	}
	if conf.Client.MailboxSize <= 0 {
		conf.Client.MailboxSize = ircclient.DefaultMailboxSize
	}
	if conf.Client.RequestTimeout == "" {
		conf.Client.RequestTimeout = defaultRequestTimeout
	}
	if conf.Logging.Level == "" {
		conf.Logging.Level = "info"
	}
	if conf.Datastore == "" {
		conf.Datastore = defaultDatastore
	}
}

func (conf *Config) validate() error {
	if _, err := NetworkName(conf.Network); err != nil {
		return errors.Wrapf(err, "network %q", conf.Network)
	}

	if conf.Server.WebSocket == "" {
		if conf.Server.Address == "" {
			return errors.New("server address or websocket URL is required")
		}
		if _, _, err := net.SplitHostPort(conf.Server.Address); err != nil {
			return errors.Wrapf(err, "server address %q", conf.Server.Address)
		}
	} else if !strings.HasPrefix(conf.Server.WebSocket, "ws://") && !strings.HasPrefix(conf.Server.WebSocket, "wss://") {
		return errors.Errorf("websocket URL %q must start with ws:// or wss://", conf.Server.WebSocket)
	}

	size, err := bytefmt.ToBytes(conf.Server.MaxLineLength)
	if err != nil {
		return errors.Wrapf(err, "max-line-length %q", conf.Server.MaxLineLength)
	}
	if size < 512 {
		return errors.Errorf("max-line-length %q is below the 512 byte protocol minimum", conf.Server.MaxLineLength)
	}
	conf.maxLineLength = int(size)

	if _, err := ircclient.NickName(conf.Identity.Nick); err != nil {
		return errors.Wrap(err, "identity nick")
	}
	if _, err := ircclient.NickName(conf.Identity.FallbackNick); err != nil {
		return errors.Wrap(err, "identity fallback-nick")
	}
	for _, name := range conf.Channels {
		if _, err := ircclient.ChannelName(name); err != nil {
			return errors.Wrap(err, "channels")
		}
	}

	conf.requestTimeout, err = time.ParseDuration(conf.Client.RequestTimeout)
	if err != nil {
		return errors.Wrapf(err, "request-timeout %q", conf.Client.RequestTimeout)
	}
	if conf.requestTimeout < 0 {
		return errors.Errorf("request-timeout %q is negative", conf.Client.RequestTimeout)
	}

	if conf.Client.Flood.Rate < 0 {
		return errors.New("flood rate cannot be negative")
	}

	conf.logLevel, err = zerolog.ParseLevel(strings.ToLower(conf.Logging.Level))
	if err != nil {
		return errors.Wrapf(err, "logging level %q", conf.Logging.Level)
	}

	return nil
}

// MaxLineLength returns the parsed server max-line-length in bytes.
func (conf *Config) MaxLineLength() int {
	return conf.maxLineLength
}

// RequestTimeout returns the parsed client request-timeout.
func (conf *Config) RequestTimeout() time.Duration {
	return conf.requestTimeout
}

// LogLevel returns the parsed logging level.
func (conf *Config) LogLevel() zerolog.Level {
	return conf.logLevel
}

// Dialer returns the transport dialer described by the server section.
func (conf *Config) Dialer() ircclient.Dialer {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: !*conf.Server.VerifyTLS,
	}

	if conf.Server.WebSocket != "" {
		return &ircclient.WebSocketDialer{
			URL:           conf.Server.WebSocket,
			TLSConfig:     tlsConfig,
			MaxLineLength: conf.maxLineLength,
		}
	}

	if host, _, err := net.SplitHostPort(conf.Server.Address); err == nil {
		tlsConfig.ServerName = host
	}
	return &ircclient.SocketDialer{
		Address:       conf.Server.Address,
		TLS:           conf.Server.TLS,
		TLSConfig:     tlsConfig,
		Timeout:       defaultDialTimeout,
		MaxLineLength: conf.maxLineLength,
	}
}

// ClientOptions returns the ircclient options described by the client
// section.
func (conf *Config) ClientOptions() []ircclient.Option {
	return []ircclient.Option{
		ircclient.WithClientMailboxSize(conf.Client.MailboxSize),
		ircclient.WithRequestTimeout(conf.requestTimeout),
		ircclient.WithFloodLimit(conf.Client.Flood.Rate, conf.Client.Flood.Burst),
	}
}
