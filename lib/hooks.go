// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircbot

import (
	"sync"

	"github.com/c2nes/ircbot/lib/ircclient"
)

// HookEmitter passes events to the components registered for them.
type HookEmitter struct {
	mu         sync.RWMutex
	Registered map[string][]func(interface{})
}

func MakeHookEmitter() *HookEmitter {
	return &HookEmitter{
		Registered: make(map[string][]func(interface{})),
	}
}

// Dispatch calls every callback registered for hookName, in registration
// order.
func (hooks *HookEmitter) Dispatch(hookName string, data interface{}) {
	hooks.mu.RLock()
	callbacks := hooks.Registered[hookName]
	hooks.mu.RUnlock()

	for _, p := range callbacks {
		if h, ok := data.(interface{ Halted() bool }); ok && h.Halted() {
			return
		}
		p(data)
	}
}

func (hooks *HookEmitter) Register(hookName string, p func(interface{})) {
	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	hooks.Registered[hookName] = append(hooks.Registered[hookName], p)
}

// HookPrivmsgName is dispatched for every PRIVMSG sent directly to the bot.
var HookPrivmsgName = "irc.privmsg"

// HookChannelMessageName is dispatched for every message in a joined
// channel.
var HookChannelMessageName = "irc.channel.message"

// HookChannelEventName is dispatched for every event in a joined channel,
// messages included.
var HookChannelEventName = "irc.channel.event"

// HookPrivmsg is the data of HookPrivmsgName.
type HookPrivmsg struct {
	Manager *Manager
	Server  *ServerConnection
	From    ircclient.Mask
	Text    string
	Message *ircclient.Message
	Halt    bool
}

// Halted stops later callbacks from seeing the hook.
func (h *HookPrivmsg) Halted() bool {
	return h.Halt
}

// HookChannelMessage is the data of HookChannelMessageName.
type HookChannelMessage struct {
	Manager *Manager
	Server  *ServerConnection
	Channel *ircclient.Channel
	Event   ircclient.MessageEvent
}

// HookChannelEvent is the data of HookChannelEventName.
type HookChannelEvent struct {
	Manager *Manager
	Server  *ServerConnection
	Channel *ircclient.Channel
	Event   ircclient.ChannelEvent
}
