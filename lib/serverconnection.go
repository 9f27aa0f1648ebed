// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircbot

import (
	"context"
	"strings"

	"github.com/c2nes/ircbot/lib/ircclient"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ServerConnection is one connection to the configured network, along with
// the channels it keeps joined.
type ServerConnection struct {
	Name    string
	Manager *Manager
	Profile Profile
	Client  *ircclient.Client

	log zerolog.Logger
}

// ChannelStatus describes a tracked channel.
type ChannelStatus struct {
	Name    string
	Joined  bool
	Members int
	Topic   string
}

// NewServerConnection creates a disconnected connection using profile.
func NewServerConnection(manager *Manager, dialer ircclient.Dialer, profile Profile) *ServerConnection {
	log := manager.Log.With().Str("network", profile.Network).Logger()

	opts := append(manager.Config.ClientOptions(),
		ircclient.WithLogger(log),
		ircclient.WithMetrics(manager.metrics),
	)

	sc := &ServerConnection{
		Name:    profile.Network,
		Manager: manager,
		Profile: profile,
		Client:  ircclient.NewClient(dialer, profile.identity(profile.Nick), opts...),
		log:     log,
	}

	// Subscribed before connecting so nothing sent right after the welcome
	// is missed.
	sc.Client.Subscribe(ircclient.FilterFunc(func(msg *ircclient.Message) bool {
		return msg.Command() == ircclient.CmdPrivmsg && sc.Client.IsMe(msg.Arg(0))
	}), sc.handlePrivmsg)

	return sc
}

func (profile Profile) identity(nick string) ircclient.Identity {
	return ircclient.Identity{
		Nick:     nick,
		Username: profile.Username,
		Realname: profile.Realname,
		Password: profile.Password,
	}
}

// Connect registers with the server, falling back to the fallback nick if
// the main one is taken.
func (sc *ServerConnection) Connect(ctx context.Context) error {
	err := sc.Client.Connect(ctx)
	if !errors.Is(err, ircclient.ErrNicknameInUse) || sc.Profile.FallbackNick == "" {
		return err
	}

	sc.log.Warn().Str("nick", sc.Profile.Nick).Str("fallback", sc.Profile.FallbackNick).Msg("nickname in use, trying fallback")
	if err := sc.Client.SetIdentity(sc.Profile.identity(sc.Profile.FallbackNick)); err != nil {
		return err
	}
	return sc.Client.Connect(ctx)
}

// Start joins the stored and configured channels. Join failures are logged,
// not returned.
func (sc *ServerConnection) Start(ctx context.Context) {
	channels, err := sc.Manager.Ds.GetChannels(sc.Name)
	if err != nil {
		sc.log.Error().Err(err).Msg("could not load stored channels")
	}
	seen := make(map[string]bool)
	for _, name := range sc.Manager.Config.Channels {
		channels = append(channels, ChannelInfo{Name: name})
	}

	for _, channel := range channels {
		key := strings.ToLower(channel.Name)
		if seen[key] {
			continue
		}
		seen[key] = true

		if _, err := sc.JoinChannel(ctx, channel.Name, channel.Key, false); err != nil {
			sc.log.Warn().Err(err).Str("channel", channel.Name).Msg("could not join channel")
		}
	}
}

func (sc *ServerConnection) handlePrivmsg(msg *ircclient.Message) {
	hook := &HookPrivmsg{
		Manager: sc.Manager,
		Server:  sc,
		From:    msg.Source(),
		Text:    msg.Arg(1),
		Message: msg,
	}
	sc.Manager.Bus.Dispatch(HookPrivmsgName, hook)
}

// JoinChannel joins a channel and, if save is set, stores it so it is
// joined again on the next connect.
func (sc *ServerConnection) JoinChannel(ctx context.Context, name, key string, save bool) (*ircclient.Channel, error) {
	ch, err := sc.Client.Join(ctx, name, key)
	if err != nil {
		return nil, err
	}
	sc.log.Info().Str("channel", ch.Name()).Int("members", len(ch.Members())).Msg("joined channel")

	ch.Listen(func(ch *ircclient.Channel, ev ircclient.ChannelEvent) {
		sc.Manager.Bus.Dispatch(HookChannelEventName, &HookChannelEvent{
			Manager: sc.Manager,
			Server:  sc,
			Channel: ch,
			Event:   ev,
		})
		if msg, ok := ev.(ircclient.MessageEvent); ok {
			sc.Manager.Bus.Dispatch(HookChannelMessageName, &HookChannelMessage{
				Manager: sc.Manager,
				Server:  sc,
				Channel: ch,
				Event:   msg,
			})
		}
	})

	if save {
		if err := sc.Manager.Ds.SaveChannel(sc.Name, ChannelInfo{Name: ch.Name(), Key: key}); err != nil {
			return ch, errors.Wrapf(err, "saving channel %s", ch.Name())
		}
	}
	return ch, nil
}

// PartChannel leaves a channel and removes it from the stored list.
func (sc *ServerConnection) PartChannel(ctx context.Context, name, reason string) error {
	if err := sc.Manager.Ds.DelChannel(sc.Name, name); err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrapf(err, "removing stored channel %s", name)
	}

	ch := sc.Client.Channel(name)
	if ch == nil {
		return errors.Errorf("not in %s", name)
	}
	defer ch.Close()
	return ch.Part(ctx, reason)
}

// Channels returns the status of every tracked channel.
func (sc *ServerConnection) Channels() []ChannelStatus {
	var status []ChannelStatus
	for _, ch := range sc.Client.Channels() {
		status = append(status, ChannelStatus{
			Name:    ch.Name(),
			Joined:  ch.Joined(),
			Members: len(ch.Members()),
			Topic:   ch.Topic(),
		})
	}
	return status
}

// Reply sends text to target as NOTICEs, one per line.
func (sc *ServerConnection) Reply(target, text string) error {
	for _, line := range strings.Split(strings.Trim(text, "\n"), "\n") {
		msg, err := ircclient.Notice(target, line)
		if err != nil {
			return err
		}
		if err := sc.Client.Send(msg); err != nil {
			return err
		}
	}
	return nil
}
