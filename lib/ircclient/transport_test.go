package ircclient

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeTransport is an in-memory server connection. Tests play the server
// through send and expect.
type fakeTransport struct {
	in        chan string
	out       chan string
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		in:     make(chan string, 64),
		out:    make(chan string, 64),
		closed: make(chan struct{}),
	}
}

func (t *fakeTransport) ReadLine() (string, error) {
	select {
	case line := <-t.in:
		return line, nil
	case <-t.closed:
		return "", io.EOF
	}
}

func (t *fakeTransport) WriteLine(line string) error {
	select {
	case <-t.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case t.out <- strings.TrimRight(line, "\r\n"):
		return nil
	case <-t.closed:
		return io.ErrClosedPipe
	}
}

func (t *fakeTransport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// send delivers lines from the server.
func (t *fakeTransport) send(lines ...string) {
	for _, line := range lines {
		t.in <- line
	}
}

// expect waits for the client to write line.
func (t *fakeTransport) expect(tb testing.TB, line string) {
	tb.Helper()
	select {
	case got := <-t.out:
		require.Equal(tb, line, got)
	case <-time.After(waitFor):
		tb.Fatalf("timed out waiting for %q", line)
	}
}

// fakeDialer hands out its transports in order.
type fakeDialer struct {
	mu         sync.Mutex
	transports []*fakeTransport
	err        error
}

func (d *fakeDialer) Dial(ctx context.Context) (Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return nil, d.err
	}
	if len(d.transports) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	t := d.transports[0]
	d.transports = d.transports[1:]
	return t, nil
}

var testIdentity = Identity{Nick: "bot", Username: "bot", Realname: "Test Bot"}

// connectedClient returns a registered client and its server side.
func connectedClient(t *testing.T, opts ...Option) (*Client, *fakeTransport) {
	t.Helper()

	transport := newFakeTransport()
	c := NewClient(&fakeDialer{transports: []*fakeTransport{transport}}, testIdentity, opts...)
	t.Cleanup(func() { c.Close() })

	errs := make(chan error, 1)
	go func() { errs <- c.Connect(context.Background()) }()

	transport.expect(t, "NICK bot")
	transport.expect(t, "USER bot 0 * :Test Bot")
	transport.send(":irc.example.net 001 bot :Welcome to the network, bot")

	select {
	case err := <-errs:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("connect did not return")
	}
	require.Equal(t, Connected, c.State())

	return c, transport
}
