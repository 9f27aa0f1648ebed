// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircbot

import (
	"github.com/pkg/errors"
)

// ErrNotFound is returned by a datastore for missing records.
var ErrNotFound = errors.New("not found")

// Profile is the stored identity for a network. Empty fields fall back to
// the config file.
type Profile struct {
	Network      string `json:"-"`
	Nick         string `json:"nick,omitempty"`
	FallbackNick string `json:"fallback-nick,omitempty"`
	Username     string `json:"username,omitempty"`
	Realname     string `json:"realname,omitempty"`
	Password     string `json:"password,omitempty"`
}

// ChannelInfo is a channel to join on connect.
type ChannelInfo struct {
	Name string `json:"name"`
	Key  string `json:"key,omitempty"`
}

type DataStoreInterface interface {
	Init(manager *Manager) error
	Setup() error
	Close() error

	GetProfile(network string) (*Profile, error)
	SaveProfile(profile *Profile) error

	GetChannels(network string) ([]ChannelInfo, error)
	SaveChannel(network string, channel ChannelInfo) error
	DelChannel(network string, name string) error
}
