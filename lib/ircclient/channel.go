// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ChannelEvent is one of JoinEvent, PartEvent, KickEvent, QuitEvent,
// NickEvent, MessageEvent or TopicEvent.
type ChannelEvent interface {
	channelEvent()
}

// JoinEvent is a user joining the channel.
type JoinEvent struct {
	Nick    string
	Message *Message
}

// PartEvent is a user leaving the channel.
type PartEvent struct {
	Nick    string
	Reason  string
	Message *Message
}

// KickEvent is a user being removed from the channel by another.
type KickEvent struct {
	Nick    string
	By      string
	Reason  string
	Message *Message
}

// QuitEvent is a channel member disconnecting from the server.
type QuitEvent struct {
	Nick    string
	Reason  string
	Message *Message
}

// NickEvent is a channel member changing nick.
type NickEvent struct {
	Old     string
	New     string
	Message *Message
}

// MessageEvent is a PRIVMSG or NOTICE sent to the channel.
type MessageEvent struct {
	From    string
	Text    string
	Notice  bool
	Message *Message
}

// TopicEvent is the channel topic being changed or reported.
type TopicEvent struct {
	Topic   string
	By      string
	Message *Message
}

func (JoinEvent) channelEvent()    {}
func (PartEvent) channelEvent()    {}
func (KickEvent) channelEvent()    {}
func (QuitEvent) channelEvent()    {}
func (NickEvent) channelEvent()    {}
func (MessageEvent) channelEvent() {}
func (TopicEvent) channelEvent()   {}

// ChannelListener receives the events of a channel in arrival order.
type ChannelListener func(ch *Channel, ev ChannelEvent)

// Channel tracks the membership and topic of one channel.
type Channel struct {
	client *Client
	name   string
	handle Handle

	mu        sync.Mutex
	members   map[string]string
	topic     string
	joined    bool
	listeners []ChannelListener

	// names collects NAMES replies until the end of the list, when it
	// replaces members. synced is closed at that point for a waiting Join.
	names  map[string]string
	synced chan struct{}
}

// Join joins name and waits for the initial member list. The returned
// channel keeps tracking membership until it is closed.
func (c *Client) Join(ctx context.Context, name, key string) (*Channel, error) {
	name, err := ChannelName(name)
	if err != nil {
		return nil, err
	}
	msg, err := Join(name, key)
	if err != nil {
		return nil, err
	}

	ch, created := c.channel(name)
	synced := ch.expectNames()

	fail := func(err error) (*Channel, error) {
		if created {
			ch.Close()
		} else {
			ch.forgetNames(synced)
		}
		return nil, err
	}

	// The member list itself is applied by the channel's own subscription,
	// in order with the events that follow it.
	replies, err := c.Request(ctx, nil, Or(
		And(Type(RPL_ENDOFNAMES), ArgFold(1, name)),
		And(Type(joinErrors...), ArgFold(1, name)),
	), msg)
	if err != nil {
		return fail(errors.Wrapf(err, "joining %s", name))
	}

	final := replies[0]
	if final.Command() != RPL_ENDOFNAMES {
		return fail(errors.Wrapf(ErrJoinRejected, "%s %s: %s", final.Command(), name, final.Trailing()))
	}

	select {
	case <-synced:
	case <-ctx.Done():
		return fail(errors.Wrapf(&RequestCancelledError{Cause: context.Cause(ctx)}, "joining %s", name))
	}

	if !ch.Joined() {
		return fail(errors.Wrapf(ErrNotConnected, "joining %s", name))
	}
	return ch, nil
}

// Channel returns the tracked channel called name, or nil.
func (c *Client) Channel(name string) *Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channels[strings.ToLower(name)]
}

// Channels returns every tracked channel sorted by name.
func (c *Client) Channels() []*Channel {
	c.mu.Lock()
	channels := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.mu.Unlock()

	sort.Slice(channels, func(i, j int) bool {
		return strings.ToLower(channels[i].name) < strings.ToLower(channels[j].name)
	})
	return channels
}

// channel returns the tracked channel called name, creating it and its
// standing subscription if needed.
func (c *Client) channel(name string) (*Channel, bool) {
	key := strings.ToLower(name)

	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.channels[key]; ok {
		return ch, false
	}

	ch := &Channel{
		client:  c,
		name:    name,
		members: make(map[string]string),
	}
	ch.handle = c.dispatcher.Subscribe(Or(
		And(Type(CmdPrivmsg, CmdNotice, CmdJoin, CmdPart, CmdKick, CmdTopic), ArgFold(0, name)),
		And(Type(RPL_TOPIC, RPL_NOTOPIC, RPL_ENDOFNAMES), ArgFold(1, name)),
		And(Type(RPL_NAMREPLY), ArgFold(2, name)),
		Type(CmdQuit, CmdNick),
	), ch.onMessage)
	c.channels[key] = ch
	return ch, true
}

// stripSigil removes a single leading privilege marker from a NAMES entry.
func stripSigil(nick string) string {
	if len(nick) > 1 && (nick[0] == '@' || nick[0] == '+') {
		return nick[1:]
	}
	return nick
}

// Name returns the channel name.
func (ch *Channel) Name() string {
	return ch.name
}

// Members returns the current member nicks, sorted.
func (ch *Channel) Members() []string {
	ch.mu.Lock()
	members := make([]string, 0, len(ch.members))
	for _, nick := range ch.members {
		members = append(members, nick)
	}
	ch.mu.Unlock()

	sort.Strings(members)
	return members
}

// Has reports whether nick is a member.
func (ch *Channel) Has(nick string) bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	_, ok := ch.members[strings.ToLower(nick)]
	return ok
}

// Topic returns the last known topic.
func (ch *Channel) Topic() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.topic
}

// Joined reports whether we are in the channel.
func (ch *Channel) Joined() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.joined
}

// Listen adds a listener for future events.
func (ch *Channel) Listen(listener ChannelListener) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.listeners = append(ch.listeners, listener)
}

// Say sends text to the channel.
func (ch *Channel) Say(text string) error {
	msg, err := Privmsg(ch.name, text)
	if err != nil {
		return err
	}
	return ch.client.Send(msg)
}

// Part leaves the channel and waits for the server to confirm. The member
// list is kept as it was until the next Join.
func (ch *Channel) Part(ctx context.Context, reason string) error {
	msg, err := Part(ch.name, reason)
	if err != nil {
		return err
	}

	replies, err := ch.client.Request(ctx, nil, Or(
		And(Type(CmdPart), ArgFold(0, ch.name), Prefix(ch.client.Nick(), "", "")),
		And(Type(ERR_NOTONCHANNEL, ERR_NOSUCHCHANNEL), ArgFold(1, ch.name)),
	), msg)

	ch.mu.Lock()
	ch.joined = false
	ch.mu.Unlock()

	if err != nil {
		return errors.Wrapf(err, "parting %s", ch.name)
	}
	if final := replies[len(replies)-1]; final.Command() != CmdPart {
		return errors.Errorf("parting %s: %s", ch.name, final.Trailing())
	}
	return nil
}

// Close stops tracking the channel. It does not part it.
func (ch *Channel) Close() {
	ch.client.dispatcher.Unsubscribe(ch.handle)

	c := ch.client
	c.mu.Lock()
	if c.channels[strings.ToLower(ch.name)] == ch {
		delete(c.channels, strings.ToLower(ch.name))
	}
	c.mu.Unlock()
}

// expectNames starts a fresh member list and returns a channel closed once
// the server has sent all of it.
func (ch *Channel) expectNames() <-chan struct{} {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.synced == nil {
		ch.names = nil
		ch.synced = make(chan struct{})
	}
	return ch.synced
}

// forgetNames drops the wait started by expectNames, unless another Join
// has replaced it.
func (ch *Channel) forgetNames(synced <-chan struct{}) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.synced != nil && ch.synced == synced {
		close(ch.synced)
		ch.synced = nil
		ch.names = nil
	}
}

// reset forgets everything learned from the connection.
func (ch *Channel) reset() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.members = make(map[string]string)
	ch.joined = false
	ch.names = nil
	if ch.synced != nil {
		close(ch.synced)
		ch.synced = nil
	}
}

// onMessage applies msg to the channel state and passes the resulting event to
// the listeners.
func (ch *Channel) onMessage(msg *Message) {
	src := msg.Source()
	me := ch.client.IsMe(src.Nick)

	ch.mu.Lock()
	var ev ChannelEvent

	switch msg.Command() {
	case CmdJoin:
		ch.members[strings.ToLower(src.Nick)] = src.Nick
		if me {
			ch.joined = true
		}
		ev = JoinEvent{Nick: src.Nick, Message: msg}

	case CmdPart:
		delete(ch.members, strings.ToLower(src.Nick))
		if me {
			ch.joined = false
		}
		ev = PartEvent{Nick: src.Nick, Reason: msg.Arg(1), Message: msg}

	case CmdKick:
		kicked := msg.Arg(1)
		delete(ch.members, strings.ToLower(kicked))
		if ch.client.IsMe(kicked) {
			ch.joined = false
		}
		ev = KickEvent{Nick: kicked, By: src.Nick, Reason: msg.Arg(2), Message: msg}

	case CmdQuit:
		key := strings.ToLower(src.Nick)
		if _, ok := ch.members[key]; ok {
			delete(ch.members, key)
			ev = QuitEvent{Nick: src.Nick, Reason: msg.Arg(0), Message: msg}
		}

	case CmdNick:
		key := strings.ToLower(src.Nick)
		if _, ok := ch.members[key]; ok {
			delete(ch.members, key)
			ch.members[strings.ToLower(msg.Arg(0))] = msg.Arg(0)
			ev = NickEvent{Old: src.Nick, New: msg.Arg(0), Message: msg}
		}

	case CmdPrivmsg, CmdNotice:
		ev = MessageEvent{From: src.Nick, Text: msg.Arg(1), Notice: msg.Command() == CmdNotice, Message: msg}

	case CmdTopic:
		ch.topic = msg.Arg(1)
		ev = TopicEvent{Topic: ch.topic, By: src.Nick, Message: msg}

	case RPL_TOPIC:
		ch.topic = msg.Arg(2)
		ev = TopicEvent{Topic: ch.topic, Message: msg}

	case RPL_NOTOPIC:
		ch.topic = ""
		ev = TopicEvent{Message: msg}

	case RPL_NAMREPLY:
		if ch.names == nil {
			ch.names = make(map[string]string)
		}
		for _, nick := range strings.Fields(msg.Trailing()) {
			nick = stripSigil(nick)
			ch.names[strings.ToLower(nick)] = nick
		}

	case RPL_ENDOFNAMES:
		if ch.names != nil || ch.synced != nil {
			if ch.names == nil {
				ch.names = make(map[string]string)
			}
			ch.members = ch.names
			ch.names = nil
		}
		if ch.synced != nil {
			ch.joined = true
			close(ch.synced)
			ch.synced = nil
		}
	}

	listeners := ch.listeners
	ch.mu.Unlock()

	if ev == nil {
		return
	}
	for _, listener := range listeners {
		listener(ch, ev)
	}
}
