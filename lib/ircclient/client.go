// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// State is the lifecycle state of a Client.
type State int

const (
	Disconnected State = iota
	Connecting
	Registering
	Connected
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Registering:
		return "registering"
	case Connected:
		return "connected"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Identity is what the client registers with.
type Identity struct {
	Nick     string
	Username string
	Realname string
	Password string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithMetrics records client metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithFloodLimit throttles outbound lines to r per second with the given
// burst. A zero rate disables throttling.
func WithFloodLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithRequestTimeout sets the deadline for requests whose context has none.
// Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// WithClientMailboxSize sets the per-subscription queue capacity.
func WithClientMailboxSize(n int) Option {
	return func(c *Client) {
		c.mailboxSize = n
	}
}

// connection is one dialled transport and its read loop.
type connection struct {
	transport Transport
	ctx       context.Context
	cancel    context.CancelCauseFunc
	done      chan struct{}
}

// Client is an IRC client connection.
type Client struct {
	dialer         Dialer
	log            zerolog.Logger
	metrics        *Metrics
	limiter        *rate.Limiter
	requestTimeout time.Duration
	mailboxSize    int

	dispatcher *Dispatcher
	requests   *RequestBridge

	mu       sync.Mutex
	state    State
	identity Identity
	nick     string
	conn     *connection
	channels map[string]*Channel

	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient creates a disconnected client.
func NewClient(dialer Dialer, identity Identity, opts ...Option) *Client {
	c := &Client{
		dialer:         dialer,
		log:            zerolog.Nop(),
		requestTimeout: DefaultRequestTimeout,
		mailboxSize:    DefaultMailboxSize,
		identity:       identity,
		nick:           identity.Nick,
		channels:       make(map[string]*Channel),
		closed:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.dispatcher = NewDispatcher(
		WithDispatcherLogger(c.log),
		WithDispatcherMetrics(c.metrics),
		WithMailboxSize(c.mailboxSize),
	)
	c.requests = NewRequestBridge(c.dispatcher, c, c.requestTimeout, c.metrics)
	return c
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Nick returns our current nickname.
func (c *Client) Nick() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nick
}

// IsMe reports whether nick is our current nickname.
func (c *Client) IsMe(nick string) bool {
	return strings.EqualFold(nick, c.Nick())
}

// SetIdentity replaces the identity used by the next Connect.
func (c *Client) SetIdentity(identity Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Disconnected {
		return errors.Errorf("cannot change identity while %s", c.state)
	}
	c.identity = identity
	c.nick = identity.Nick
	return nil
}

// Connect dials the server and registers. It returns once the server has
// welcomed us. If the nickname is refused the error matches
// ErrNicknameInUse and the client is Disconnected again, ready for another
// attempt.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Disconnected {
		state := c.state
		c.mu.Unlock()
		return errors.Errorf("cannot connect while %s", state)
	}
	c.state = Connecting
	identity := c.identity
	c.nick = identity.Nick
	c.mu.Unlock()

	registration, err := registrationMessages(identity)
	if err != nil {
		c.setState(Disconnected)
		return err
	}

	transport, err := c.dialer.Dial(ctx)
	if err != nil {
		c.setState(Disconnected)
		return err
	}

	conn := &connection{
		transport: transport,
		done:      make(chan struct{}),
	}
	conn.ctx, conn.cancel = context.WithCancelCause(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.state = Registering
	c.mu.Unlock()

	go c.readLoop(conn)

	replies, err := c.Request(ctx, nil, Type(append(append([]Command{}, welcomeReplies...), nickErrors...)...), registration...)
	if err != nil {
		c.abort(conn)
		return errors.Wrap(err, "registering")
	}

	final := replies[len(replies)-1]
	if err := nickError(final); err != nil {
		c.abort(conn)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn || c.state != Registering {
		return errors.Wrap(ErrNotConnected, "connection lost during registration")
	}
	c.state = Connected
	c.log.Info().Str("nick", c.nick).Msg("registered")
	return nil
}

func registrationMessages(identity Identity) ([]*Message, error) {
	var msgs []*Message

	if identity.Password != "" {
		pass, err := Pass(identity.Password)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, pass)
	}

	nickname, err := NickName(identity.Nick)
	if err != nil {
		return nil, err
	}
	nick, err := Nick(nickname)
	if err != nil {
		return nil, err
	}

	username := identity.Username
	if username == "" {
		username = nickname
	}
	realname := identity.Realname
	if realname == "" {
		realname = nickname
	}
	user, err := User(username, realname)
	if err != nil {
		return nil, err
	}

	return append(msgs, nick, user), nil
}

// nickError maps a nickname rejection reply to an error.
func nickError(msg *Message) error {
	switch msg.Command() {
	case ERR_NICKNAMEINUSE, ERR_NICKCOLLISION, ERR_UNAVAILRESOURCE:
		return errors.Wrapf(ErrNicknameInUse, "%s: %s", msg.Arg(1), msg.Trailing())
	case ERR_ERRONEUSNICKNAME, ERR_NONICKNAMEGIVEN:
		return errors.Wrapf(ErrInvalidName, "%s: %s", msg.Arg(1), msg.Trailing())
	}
	return nil
}

// abort drops a connection that failed to register. The read loop notices
// and returns the client to Disconnected.
func (c *Client) abort(conn *connection) {
	if err := conn.transport.Close(); err != nil {
		c.log.Debug().Err(err).Msg("closing transport")
	}
	<-conn.done
}

// SetNick changes our nickname on a live connection.
func (c *Client) SetNick(ctx context.Context, nick string) error {
	nick, err := NickName(nick)
	if err != nil {
		return err
	}
	msg, err := Nick(nick)
	if err != nil {
		return err
	}

	last := Or(
		And(Type(CmdNick), Prefix(c.Nick(), "", "")),
		Type(nickErrors...),
	)
	replies, err := c.Request(ctx, nil, last, msg)
	if err != nil {
		return err
	}
	return nickError(replies[len(replies)-1])
}

// Send encodes and writes messages in order. It fails with ErrNotConnected
// unless the client is registering or connected.
func (c *Client) Send(msgs ...*Message) error {
	c.mu.Lock()
	conn, state := c.conn, c.state
	c.mu.Unlock()

	if conn == nil || (state != Registering && state != Connected) {
		return ErrNotConnected
	}
	return c.write(conn, true, msgs...)
}

// Request sends msgs and blocks until a message accepted by last arrives,
// returning it together with every earlier message accepted by match. The
// request is cancelled if the connection is lost.
func (c *Client) Request(ctx context.Context, match, last Filter, msgs ...*Message) ([]*Message, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(conn.ctx, func() { cancel(ErrNotConnected) })
	defer stop()

	return c.requests.Request(ctx, match, last, msgs...)
}

// Subscribe registers handler for every inbound message f accepts.
func (c *Client) Subscribe(f Filter, handler Handler) Handle {
	return c.dispatcher.Subscribe(f, handler)
}

// Unsubscribe removes a subscription made with Subscribe.
func (c *Client) Unsubscribe(h Handle) bool {
	return c.dispatcher.Unsubscribe(h)
}

// Quit sends QUIT, closes the transport and waits until the client is
// Closed. Concurrent calls all wait for the same teardown.
func (c *Client) Quit(ctx context.Context, reason string) error {
	c.mu.Lock()
	switch c.state {
	case Connected:
		c.state = Closing
	case Closing, Closed:
		c.mu.Unlock()
		return c.AwaitClosed(ctx)
	default:
		c.mu.Unlock()
		return ErrNotConnected
	}
	conn := c.conn
	c.mu.Unlock()

	msg, err := Quit(reason)
	if err != nil {
		c.log.Warn().Err(err).Msg("bad quit reason, quitting without one")
		msg = MustMessage("", CmdQuit)
	}
	if err := c.write(conn, false, msg); err != nil {
		c.log.Warn().Err(err).Msg("could not send quit")
	}
	if err := conn.transport.Close(); err != nil {
		c.log.Debug().Err(err).Msg("closing transport")
	}

	return c.AwaitClosed(ctx)
}

// AwaitClosed blocks until the client reaches Closed or ctx ends.
func (c *Client) AwaitClosed(ctx context.Context) error {
	select {
	case <-c.closed:
		return nil
	case <-ctx.Done():
		return &RequestCancelledError{Cause: context.Cause(ctx)}
	}
}

// Closed is closed when the client reaches Closed.
func (c *Client) Closed() <-chan struct{} {
	return c.closed
}

// Close tears down any connection without a QUIT and stops every
// subscription. The client is unusable afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.transport.Close()
		<-conn.done
	}

	c.mu.Lock()
	c.state = Closed
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.closed) })

	c.dispatcher.Close()
	return err
}

func (c *Client) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

func (c *Client) write(conn *connection, throttle bool, msgs ...*Message) error {
	for _, msg := range msgs {
		if throttle && c.limiter != nil {
			if err := c.limiter.Wait(conn.ctx); err != nil {
				return errors.Wrap(ErrNotConnected, err.Error())
			}
		}

		line := msg.Line()
		if err := conn.transport.WriteLine(line); err != nil {
			c.log.Error().Err(err).Msg("write failed, dropping connection")
			conn.transport.Close()
			return errors.Wrapf(err, "writing %s", msg.Command())
		}
		c.metrics.recordLineOut()
		c.log.Debug().Str("line", strings.TrimRight(line, "\r\n")).Msg("->")
	}
	return nil
}

func (c *Client) readLoop(conn *connection) {
	defer close(conn.done)

	for {
		line, err := conn.transport.ReadLine()
		if err != nil {
			c.connectionLost(conn, err)
			return
		}
		c.metrics.recordLineIn()
		c.log.Debug().Str("line", line).Msg("<-")

		msg, err := ParseMessage(line)
		if err != nil {
			c.metrics.recordInvalidLine()
			c.log.Warn().Err(err).Str("line", line).Msg("discarding invalid line")
			continue
		}

		if c.handleInternal(conn, msg) {
			continue
		}
		c.dispatcher.Dispatch(msg)
	}
}

// handleInternal runs the client's own reactions to msg before it is
// dispatched. It reports whether msg is consumed.
func (c *Client) handleInternal(conn *connection, msg *Message) bool {
	switch msg.Command() {
	case CmdPing:
		pong, err := Pong(msg.Arg(0))
		if err == nil {
			err = c.write(conn, false, pong)
		}
		if err != nil {
			c.log.Warn().Err(err).Msg("could not answer ping")
		}
		return true

	case CmdNick:
		c.mu.Lock()
		if strings.EqualFold(msg.Source().Nick, c.nick) {
			c.nick = msg.Arg(0)
		}
		c.mu.Unlock()

	case CmdError:
		c.log.Warn().Str("reason", msg.Trailing()).Msg("server sent ERROR")

	default:
		for _, cmd := range welcomeReplies {
			if msg.Command() == cmd && msg.Arg(0) != "" && msg.Arg(0) != "*" {
				c.mu.Lock()
				c.nick = msg.Arg(0)
				c.mu.Unlock()
				break
			}
		}
	}

	return false
}

func (c *Client) connectionLost(conn *connection, cause error) {
	conn.cancel(ErrNotConnected)

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil

	switch c.state {
	case Connecting, Registering:
		c.state = Disconnected
		c.log.Warn().Err(cause).Msg("connection lost during registration")
	default:
		c.state = Closed
		c.log.Info().Err(cause).Msg("connection closed")
		c.closeOnce.Do(func() { close(c.closed) })
	}

	channels := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.mu.Unlock()

	for _, ch := range channels {
		ch.reset()
	}
}
