package ircbot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c2nes/ircbot/lib/ircclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
network: Libera
server:
  address: irc.libera.chat:6697
  tls: true
identity:
  nick: ircbot
`

func TestConfigDefaults(t *testing.T) {
	config, err := ParseConfig([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "ircbot_", config.Identity.FallbackNick)
	assert.Equal(t, "ircbot", config.Identity.Username)
	assert.Equal(t, Ver, config.Identity.Realname)
	assert.True(t, *config.Server.VerifyTLS)
	assert.Equal(t, 8*1024, config.MaxLineLength())
	assert.Equal(t, 30*time.Second, config.RequestTimeout())
	assert.Equal(t, ircclient.DefaultMailboxSize, config.Client.MailboxSize)
	assert.Equal(t, zerolog.InfoLevel, config.LogLevel())
	assert.Equal(t, "ircbot.db", config.Datastore)

	dialer, ok := config.Dialer().(*ircclient.SocketDialer)
	require.True(t, ok)
	assert.True(t, dialer.TLS)
	assert.Equal(t, "irc.libera.chat", dialer.TLSConfig.ServerName)
	assert.False(t, dialer.TLSConfig.InsecureSkipVerify)
}

func TestConfigFull(t *testing.T) {
	config, err := ParseConfig([]byte(`
network: oftc
server:
  websocket: wss://irc.example.net/webirc
  verify-tls: false
  max-line-length: 16KB
identity: {nick: bot, fallback-nick: bot2, username: b, realname: "The Bot", password: pw}
channels: ["#one", "#two"]
owner: me
client:
  mailbox-size: 64
  request-timeout: 5s
  flood: {rate: 2, burst: 5}
logging: {level: DEBUG, json: true, messages: logs}
datastore: /tmp/bot.db
metrics: ":9100"
`))
	require.NoError(t, err)

	assert.Equal(t, 16*1024, config.MaxLineLength())
	assert.Equal(t, 5*time.Second, config.RequestTimeout())
	assert.Equal(t, zerolog.DebugLevel, config.LogLevel())
	assert.Equal(t, "logs", config.Logging.Messages)
	assert.Equal(t, []string{"#one", "#two"}, config.Channels)
	assert.Equal(t, 2.0, config.Client.Flood.Rate)
	assert.Len(t, config.ClientOptions(), 3)

	dialer, ok := config.Dialer().(*ircclient.WebSocketDialer)
	require.True(t, ok)
	assert.Equal(t, "wss://irc.example.net/webirc", dialer.URL)
	assert.True(t, dialer.TLSConfig.InsecureSkipVerify)
}

func TestConfigValidation(t *testing.T) {
	tests := map[string]string{
		"no network":      "server: {address: 'a:1'}\nidentity: {nick: bot}",
		"no address":      "network: x\nidentity: {nick: bot}",
		"no port":         "network: x\nserver: {address: irc.example.net}\nidentity: {nick: bot}",
		"bad websocket":   "network: x\nserver: {websocket: 'http://a'}\nidentity: {nick: bot}",
		"no nick":         "network: x\nserver: {address: 'a:1'}",
		"bad nick":        "network: x\nserver: {address: 'a:1'}\nidentity: {nick: 'b@d'}",
		"bad channel":     "network: x\nserver: {address: 'a:1'}\nidentity: {nick: bot}\nchannels: [nochan]",
		"bad size":        "network: x\nserver: {address: 'a:1', max-line-length: lots}\nidentity: {nick: bot}",
		"small size":      "network: x\nserver: {address: 'a:1', max-line-length: 100B}\nidentity: {nick: bot}",
		"bad timeout":     "network: x\nserver: {address: 'a:1'}\nidentity: {nick: bot}\nclient: {request-timeout: soon}",
		"negative flood":  "network: x\nserver: {address: 'a:1'}\nidentity: {nick: bot}\nclient: {flood: {rate: -1}}",
		"bad log level":   "network: x\nserver: {address: 'a:1'}\nidentity: {nick: bot}\nlogging: {level: loud}",
		"not yaml at all": "{{{",
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Libera", config.Network)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNetworkName(t *testing.T) {
	name, err := NetworkName(" Libera ")
	require.NoError(t, err)
	assert.Equal(t, "libera", name)

	for _, bad := range []string{"", "two words", "1st", "a.b", "x/y"} {
		_, err := NetworkName(bad)
		assert.Error(t, err, bad)
	}
}
