package main

import (
	"bytes"
	"testing"

	"github.com/c2nes/ircbot/lib"
	"github.com/c2nes/ircbot/lib/datastores/buntdb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T, extra string) *ircbot.Manager {
	t.Helper()

	config, err := ircbot.ParseConfig([]byte(`
network: libera
server: {address: "irc.example.net:6667"}
identity: {nick: bot}
datastore: ":memory:"
` + extra))
	require.NoError(t, err)

	ds := &ircDataStoreBuntdb.DataStore{}
	m := ircbot.NewManager(config, ds, zerolog.Nop())
	require.NoError(t, ds.Init(m))
	t.Cleanup(func() { ds.Close() })
	return m
}

func TestPrintChannels(t *testing.T) {
	m := testManager(t, "")
	require.NoError(t, m.Ds.SaveChannel("libera", ircbot.ChannelInfo{Name: "#go", Key: "abc"}))
	require.NoError(t, m.Ds.SaveChannel("libera", ircbot.ChannelInfo{Name: "#irc"}))

	var out bytes.Buffer
	require.NoError(t, printChannels(&out, m))

	assert.Contains(t, out.String(), "CHANNEL")
	assert.Contains(t, out.String(), "#go")
	assert.Contains(t, out.String(), "***")
	assert.NotContains(t, out.String(), "abc")
	assert.Contains(t, out.String(), "#irc")
}

func TestPrintNoChannels(t *testing.T) {
	m := testManager(t, "")

	var out bytes.Buffer
	require.NoError(t, printChannels(&out, m))
	assert.Equal(t, "No stored channels for libera\n", out.String())
}

func TestNewLogger(t *testing.T) {
	var out bytes.Buffer
	m := testManager(t, "logging: {level: warn, json: true}\n")

	logger := newLogger(&out, m.Config)
	logger.Info().Msg("hidden")
	logger.Warn().Str("channel", "#go").Msg("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"channel":"#go"`)
	assert.Contains(t, out.String(), `"message":"shown"`)
}
