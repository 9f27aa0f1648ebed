package ircclient

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRegisters(t *testing.T) {
	c, _ := connectedClient(t)
	assert.Equal(t, "bot", c.Nick())
}

func TestConnectSendsPasswordFirst(t *testing.T) {
	transport := newFakeTransport()
	identity := testIdentity
	identity.Password = "hunter2"
	c := NewClient(&fakeDialer{transports: []*fakeTransport{transport}}, identity)
	defer c.Close()

	errs := make(chan error, 1)
	go func() { errs <- c.Connect(context.Background()) }()

	transport.expect(t, "PASS hunter2")
	transport.expect(t, "NICK bot")
	transport.expect(t, "USER bot 0 * :Test Bot")
	assert.Equal(t, Registering, c.State())

	transport.send(
		":irc.example.net NOTICE * :*** Looking up your hostname",
		":irc.example.net 376 bot_ :End of /MOTD command.",
	)
	require.NoError(t, <-errs)
	assert.Equal(t, Connected, c.State())
	assert.Equal(t, "bot_", c.Nick())
}

func TestConnectWelcomeReplies(t *testing.T) {
	for _, cmd := range welcomeReplies {
		t.Run(string(cmd), func(t *testing.T) {
			transport := newFakeTransport()
			c := NewClient(&fakeDialer{transports: []*fakeTransport{transport}}, testIdentity)
			defer c.Close()

			errs := make(chan error, 1)
			go func() { errs <- c.Connect(context.Background()) }()

			transport.expect(t, "NICK bot")
			transport.expect(t, "USER bot 0 * :Test Bot")
			transport.send(":srv " + string(cmd) + " bot :hello")

			require.NoError(t, <-errs)
			assert.Equal(t, Connected, c.State())
		})
	}
}

func TestConnectNicknameInUse(t *testing.T) {
	first, second := newFakeTransport(), newFakeTransport()
	c := NewClient(&fakeDialer{transports: []*fakeTransport{first, second}}, testIdentity)
	defer c.Close()

	errs := make(chan error, 1)
	go func() { errs <- c.Connect(context.Background()) }()

	first.expect(t, "NICK bot")
	first.expect(t, "USER bot 0 * :Test Bot")
	first.send(":srv 433 * bot :Nickname is already in use")

	err := <-errs
	assert.ErrorIs(t, err, ErrNicknameInUse)
	assert.Equal(t, Disconnected, c.State())

	identity := testIdentity
	identity.Nick = "bot2"
	require.NoError(t, c.SetIdentity(identity))

	go func() { errs <- c.Connect(context.Background()) }()
	second.expect(t, "NICK bot2")
	second.expect(t, "USER bot 0 * :Test Bot")
	second.send(":srv 001 bot2 :Welcome")
	require.NoError(t, <-errs)
	assert.Equal(t, "bot2", c.Nick())
}

func TestConnectDialFailure(t *testing.T) {
	boom := errors.New("connection refused")
	c := NewClient(&fakeDialer{err: boom}, testIdentity)
	defer c.Close()

	assert.ErrorIs(t, c.Connect(context.Background()), boom)
	assert.Equal(t, Disconnected, c.State())
}

func TestConnectionLostDuringRegistration(t *testing.T) {
	transport := newFakeTransport()
	c := NewClient(&fakeDialer{transports: []*fakeTransport{transport}}, testIdentity)
	defer c.Close()

	errs := make(chan error, 1)
	go func() { errs <- c.Connect(context.Background()) }()

	transport.expect(t, "NICK bot")
	transport.expect(t, "USER bot 0 * :Test Bot")
	transport.Close()

	err := <-errs
	assert.ErrorIs(t, err, ErrRequestCancelled)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, Disconnected, c.State())
}

func TestConnectTwiceFails(t *testing.T) {
	c, _ := connectedClient(t)
	assert.Error(t, c.Connect(context.Background()))
}

func TestPingIsAnsweredInternally(t *testing.T) {
	c, transport := connectedClient(t)

	got := make(chan *Message, 10)
	c.Subscribe(Any(), func(msg *Message) { got <- msg })

	transport.send("PING :irc.example.net")
	transport.expect(t, "PONG irc.example.net")

	transport.send(":alice!a@h PRIVMSG bot :hello")
	select {
	case msg := <-got:
		assert.Equal(t, CmdPrivmsg, msg.Command())
	case <-time.After(waitFor):
		t.Fatal("privmsg not delivered")
	}
}

func TestInvalidLinesAreDiscarded(t *testing.T) {
	c, transport := connectedClient(t)

	got := make(chan *Message, 10)
	c.Subscribe(Any(), func(msg *Message) { got <- msg })

	transport.send("FROBNICATE all the things", ":srv PRIVMSG", ":alice!a@h PRIVMSG #c :still here")

	select {
	case msg := <-got:
		assert.Equal(t, "still here", msg.Trailing())
	case <-time.After(waitFor):
		t.Fatal("valid line after invalid ones not delivered")
	}
	assert.Equal(t, Connected, c.State())
}

func TestOwnNickTracking(t *testing.T) {
	c, transport := connectedClient(t)

	transport.send(":bot!b@h NICK :newbot")
	assert.Eventually(t, func() bool { return c.Nick() == "newbot" }, waitFor, time.Millisecond)

	transport.send(":alice!a@h NICK alicia")
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, "newbot", c.Nick())
}

func TestSetNick(t *testing.T) {
	c, transport := connectedClient(t)

	errs := make(chan error, 1)
	go func() { errs <- c.SetNick(context.Background(), "robot") }()
	transport.expect(t, "NICK robot")
	transport.send(":bot!b@h NICK robot")

	require.NoError(t, <-errs)
	assert.Equal(t, "robot", c.Nick())
}

func TestSetNickInUse(t *testing.T) {
	c, transport := connectedClient(t)

	errs := make(chan error, 1)
	go func() { errs <- c.SetNick(context.Background(), "taken") }()
	transport.expect(t, "NICK taken")
	transport.send(":srv 433 bot taken :Nickname is already in use")

	assert.ErrorIs(t, <-errs, ErrNicknameInUse)
	assert.Equal(t, Connected, c.State())
	assert.Equal(t, "bot", c.Nick())

	msg, err := Privmsg("#c", "still usable")
	require.NoError(t, err)
	require.NoError(t, c.Send(msg))
	transport.expect(t, "PRIVMSG #c :still usable")
}

func TestSetNickInvalid(t *testing.T) {
	c, _ := connectedClient(t)
	assert.ErrorIs(t, c.SetNick(context.Background(), "bad nick"), ErrInvalidName)
}

func TestSendBeforeConnect(t *testing.T) {
	c := NewClient(&fakeDialer{}, testIdentity)
	defer c.Close()

	assert.ErrorIs(t, c.Send(MustMessage("", CmdPing, "x")), ErrNotConnected)
}

func TestCloseBeforeConnect(t *testing.T) {
	c := NewClient(&fakeDialer{}, testIdentity)
	require.NoError(t, c.Close())

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	assert.NoError(t, c.AwaitClosed(ctx))
	assert.Equal(t, Closed, c.State())
	assert.Error(t, c.Connect(context.Background()))
}

func TestQuit(t *testing.T) {
	c, transport := connectedClient(t)

	require.NoError(t, c.Quit(context.Background(), "bye now"))
	transport.expect(t, "QUIT :bye now")

	assert.Equal(t, Closed, c.State())
	assert.ErrorIs(t, c.Send(MustMessage("", CmdPing, "x")), ErrNotConnected)
	assert.Error(t, c.Connect(context.Background()))
}

func TestConcurrentQuit(t *testing.T) {
	c, transport := connectedClient(t)

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Quit(context.Background(), "bye")
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	transport.expect(t, "QUIT :bye")
	select {
	case line := <-transport.out:
		t.Fatalf("unexpected second write %q", line)
	default:
	}
	assert.Equal(t, Closed, c.State())
}

func TestTransportLossClosesClient(t *testing.T) {
	c, transport := connectedClient(t)

	pending := make(chan error, 1)
	go func() {
		_, err := c.Request(context.Background(), nil, Type(RPL_ENDOFNAMES), MustMessage("", CmdNames, "#c"))
		pending <- err
	}()
	transport.expect(t, "NAMES #c")

	transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, c.AwaitClosed(ctx))
	assert.Equal(t, Closed, c.State())

	err := <-pending
	assert.ErrorIs(t, err, ErrRequestCancelled)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Equal(t, 0, c.dispatcher.Len())
}

func TestAwaitClosedCancelled(t *testing.T) {
	c, _ := connectedClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := c.AwaitClosed(ctx)
	assert.ErrorIs(t, err, ErrRequestCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFloodLimit(t *testing.T) {
	c, transport := connectedClient(t, WithFloodLimit(1000, 1))

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Send(MustMessage("", CmdPrivmsg, "#c", "x")))
	}
	for i := 0; i < 3; i++ {
		transport.expect(t, "PRIVMSG #c :x")
	}
}
