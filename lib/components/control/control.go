package ircComponentControl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/c2nes/ircbot/lib"
)

const commandTimeout = 30 * time.Second

// Run registers the control component with the manager.
func Run(manager *ircbot.Manager) {
	manager.Bus.Register(ircbot.HookPrivmsgName, onPrivmsg)
	manager.Bus.Register(ircbot.HookChannelMessageName, onChannelMessage)
}

func onPrivmsg(hook interface{}) {
	event := hook.(*ircbot.HookPrivmsg)
	if !isOwner(event.Manager, event.From.Nick) {
		return
	}

	// Owner commands are not passed on to other components
	event.Halt = true

	handleCommand(event.Server, event.From.Nick, event.Text)
}

// onChannelMessage accepts "<botnick>: <command>" from the owner in a
// channel. Replies go to the owner privately.
func onChannelMessage(hook interface{}) {
	event := hook.(*ircbot.HookChannelMessage)
	if event.Event.Notice || !isOwner(event.Manager, event.Event.From) {
		return
	}

	nick := event.Server.Client.Nick()
	text := event.Event.Text
	for _, sep := range []string{": ", ", "} {
		if strings.HasPrefix(strings.ToLower(text), strings.ToLower(nick)+sep) {
			handleCommand(event.Server, event.Event.From, text[len(nick)+len(sep):])
			return
		}
	}
}

func isOwner(manager *ircbot.Manager, nick string) bool {
	owner := manager.Config.Owner
	return owner != "" && strings.EqualFold(owner, nick)
}

func handleCommand(sc *ircbot.ServerConnection, from string, text string) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}
	command := strings.ToLower(parts[0])
	params := parts[1:]

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	var reply string
	switch command {
	case "channels":
		reply = commandChannels(sc)
	case "join":
		reply = commandJoin(ctx, sc, params)
	case "part":
		reply = commandPart(ctx, sc, params)
	case "say":
		reply = commandSay(sc, params)
	case "help":
		reply = "Commands: channels, join <channel> [key], part <channel> [reason], say <target> <text>"
	default:
		reply = fmt.Sprintf("Unknown command %q, try help", command)
	}

	if err := sc.Reply(from, reply); err != nil {
		sc.Manager.Log.Warn().Err(err).Str("to", from).Msg("could not send control reply")
	}
}

func commandChannels(sc *ircbot.ServerConnection) string {
	channels := sc.Channels()
	if len(channels) == 0 {
		return "Not tracking any channels"
	}

	table := NewTable()
	table.SetHeader([]string{"Name", "Joined", "Members", "Topic"})

	for _, channel := range channels {
		joined := "No"
		if channel.Joined {
			joined = "Yes"
		}
		table.Append([]string{channel.Name, joined, strconv.Itoa(channel.Members), channel.Topic})
	}

	return strings.Join(table.RenderToLines(), "\n")
}

func commandJoin(ctx context.Context, sc *ircbot.ServerConnection, params []string) string {
	if len(params) < 1 {
		return "Usage: join <channel> [key]"
	}
	var key string
	if len(params) > 1 {
		key = params[1]
	}

	ch, err := sc.JoinChannel(ctx, params[0], key, true)
	if err != nil {
		return fmt.Sprintf("Could not join %s: %s", params[0], err)
	}
	return fmt.Sprintf("Joined %s (%d members)", ch.Name(), len(ch.Members()))
}

func commandPart(ctx context.Context, sc *ircbot.ServerConnection, params []string) string {
	if len(params) < 1 {
		return "Usage: part <channel> [reason]"
	}

	if err := sc.PartChannel(ctx, params[0], strings.Join(params[1:], " ")); err != nil {
		return fmt.Sprintf("Could not part %s: %s", params[0], err)
	}
	return fmt.Sprintf("Parted %s", params[0])
}

func commandSay(sc *ircbot.ServerConnection, params []string) string {
	if len(params) < 2 {
		return "Usage: say <target> <text>"
	}

	if ch := sc.Client.Channel(params[0]); ch != nil {
		if err := ch.Say(strings.Join(params[1:], " ")); err != nil {
			return fmt.Sprintf("Could not send: %s", err)
		}
		return "Sent"
	}
	return fmt.Sprintf("Not in %s", params[0])
}
