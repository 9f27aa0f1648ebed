// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

// Privmsg builds a PRIVMSG to a nick or channel.
func Privmsg(target, text string) (*Message, error) {
	return NewMessage("", CmdPrivmsg, target, text)
}

// Notice builds a NOTICE to a nick or channel.
func Notice(target, text string) (*Message, error) {
	return NewMessage("", CmdNotice, target, text)
}

// Join builds a JOIN for channel, with an optional key.
func Join(channel, key string) (*Message, error) {
	if key == "" {
		return NewMessage("", CmdJoin, channel)
	}
	return NewMessage("", CmdJoin, channel, key)
}

// Part builds a PART for channel. An empty reason is omitted.
func Part(channel, reason string) (*Message, error) {
	if reason == "" {
		return NewMessage("", CmdPart, channel)
	}
	return NewMessage("", CmdPart, channel, reason)
}

// Quit builds a QUIT. An empty reason is omitted.
func Quit(reason string) (*Message, error) {
	if reason == "" {
		return NewMessage("", CmdQuit)
	}
	return NewMessage("", CmdQuit, reason)
}

// Nick builds a NICK.
func Nick(nick string) (*Message, error) {
	return NewMessage("", CmdNick, nick)
}

// User builds the USER registration message.
func User(username, realname string) (*Message, error) {
	return NewMessage("", CmdUser, username, "0", "*", realname)
}

// Pass builds the PASS registration message.
func Pass(password string) (*Message, error) {
	return NewMessage("", CmdPass, password)
}

// Names builds a NAMES request for channel, or for every channel if empty.
func Names(channel string) (*Message, error) {
	if channel == "" {
		return NewMessage("", CmdNames)
	}
	return NewMessage("", CmdNames, channel)
}

// Topic builds a TOPIC query for channel.
func Topic(channel string) (*Message, error) {
	return NewMessage("", CmdTopic, channel)
}

// SetTopic builds a TOPIC change for channel.
func SetTopic(channel, topic string) (*Message, error) {
	return NewMessage("", CmdTopic, channel, topic)
}

// Pong answers a PING carrying token.
func Pong(token string) (*Message, error) {
	return NewMessage("", CmdPong, token)
}
