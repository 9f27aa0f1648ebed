package ircComponentLogger

import (
	"fmt"
	"time"

	"github.com/c2nes/ircbot/lib"
	"github.com/c2nes/ircbot/lib/ircclient"
	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02 15:04:05"

// Logger writes the events of joined channels to a MessageStore.
type Logger struct {
	store MessageStore
	log   zerolog.Logger
	now   func() time.Time
}

// Run starts channel logging if the config names a directory for it.
func Run(manager *ircbot.Manager) {
	path := manager.Config.Logging.Messages
	if path == "" {
		return
	}

	manager.Log.Info().Str("path", path).Msg("starting channel logger")
	logger := &Logger{
		store: NewFileMessageStore(path),
		log:   manager.Log.With().Str("component", "logger").Logger(),
		now:   time.Now,
	}
	manager.Bus.Register(ircbot.HookChannelEventName, logger.onChannelEvent)
}

func (l *Logger) onChannelEvent(hook interface{}) {
	event := hook.(*ircbot.HookChannelEvent)
	l.record(event.Server.Name, event.Channel.Name(), event.Event)
}

func (l *Logger) record(network, channel string, ev ircclient.ChannelEvent) {
	line := formatEvent(ev)
	if line == "" {
		return
	}

	line = fmt.Sprintf("[%s] %s", l.now().Format(timeFormat), line)
	if err := l.store.Store(network, channel, line); err != nil {
		l.log.Warn().Err(err).Str("channel", channel).Msg("could not log channel event")
	}
}

func formatEvent(ev ircclient.ChannelEvent) string {
	switch ev := ev.(type) {
	case ircclient.MessageEvent:
		if ev.Notice {
			return fmt.Sprintf("-%s- %s", ev.From, ev.Text)
		}
		return fmt.Sprintf("<%s> %s", ev.From, ev.Text)
	case ircclient.JoinEvent:
		return fmt.Sprintf("* %s has joined", ev.Nick)
	case ircclient.PartEvent:
		return "* " + ev.Nick + " has left" + reason(ev.Reason)
	case ircclient.QuitEvent:
		return "* " + ev.Nick + " has quit" + reason(ev.Reason)
	case ircclient.KickEvent:
		return fmt.Sprintf("* %s was kicked by %s", ev.Nick, ev.By) + reason(ev.Reason)
	case ircclient.NickEvent:
		return fmt.Sprintf("* %s is now known as %s", ev.Old, ev.New)
	case ircclient.TopicEvent:
		if ev.By == "" {
			return fmt.Sprintf("* Topic is: %s", ev.Topic)
		}
		return fmt.Sprintf("* %s changed the topic to: %s", ev.By, ev.Topic)
	}
	return ""
}

func reason(text string) string {
	if text == "" {
		return ""
	}
	return " (" + text + ")"
}
