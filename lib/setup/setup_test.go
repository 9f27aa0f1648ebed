package ircsetup

import (
	"bufio"
	"strings"
	"testing"

	"github.com/c2nes/ircbot/lib"
	"github.com/c2nes/ircbot/lib/datastores/buntdb"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withInput(t *testing.T, text string, passwords ...string) {
	t.Helper()

	oldInput, oldPassword := input, readPassword
	t.Cleanup(func() { input, readPassword = oldInput, oldPassword })

	input = bufio.NewReader(strings.NewReader(text))
	readPassword = func() (string, error) {
		require.NotEmpty(t, passwords, "unexpected password prompt")
		password := passwords[0]
		passwords = passwords[1:]
		return password, nil
	}
}

func testManager(t *testing.T) (*ircbot.Manager, *ircDataStoreBuntdb.DataStore) {
	t.Helper()

	config, err := ircbot.ParseConfig([]byte(`
network: Libera
server: {address: "irc.example.net:6667"}
identity: {nick: bot, realname: Example Bot}
datastore: ":memory:"
`))
	require.NoError(t, err)

	ds := &ircDataStoreBuntdb.DataStore{}
	m := ircbot.NewManager(config, ds, zerolog.Nop())
	require.NoError(t, ds.Init(m))
	t.Cleanup(func() { ds.Close() })
	return m, ds
}

func TestInitialSetup(t *testing.T) {
	m, ds := testManager(t)
	withInput(t, strings.Join([]string{
		"bad nick", // rejected
		"helper",
		"",
		"",
		"Helpful Bot",
		"maybe",
		"y",
		"nochannel #ok",
		"#ok #Also",
	}, "\n")+"\n", "one", "two", "secret", "secret")

	require.NoError(t, InitialSetup(m))

	profile, err := ds.GetProfile("libera")
	require.NoError(t, err)
	assert.Equal(t, &ircbot.Profile{
		Network:      "libera",
		Nick:         "helper",
		FallbackNick: "helper_",
		Username:     "bot",
		Realname:     "Helpful Bot",
		Password:     "secret",
	}, profile)

	channels, err := ds.GetChannels("libera")
	require.NoError(t, err)
	assert.Equal(t, []ircbot.ChannelInfo{{Name: "#Also"}, {Name: "#ok"}}, channels)
}

func TestInitialSetupDefaults(t *testing.T) {
	m, ds := testManager(t)
	withInput(t, "\n\n\n\nn\n\n")

	require.NoError(t, InitialSetup(m))

	profile, err := ds.GetProfile("libera")
	require.NoError(t, err)
	assert.Equal(t, "bot", profile.Nick)
	assert.Equal(t, "bot_", profile.FallbackNick)
	assert.Equal(t, "Example Bot", profile.Realname)
	assert.Empty(t, profile.Password)

	channels, err := ds.GetChannels("libera")
	require.NoError(t, err)
	assert.Empty(t, channels)
}

func TestInitialSetupEndOfInput(t *testing.T) {
	m, _ := testManager(t)
	withInput(t, "helper\n")

	assert.Error(t, InitialSetup(m))
}
