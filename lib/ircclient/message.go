// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"strconv"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/pkg/errors"
)

// MaxArgs is the most arguments a single message may carry.
const MaxArgs = 15

// Message is a single, immutable IRC protocol message.
type Message struct {
	prefix  string
	command Command
	args    []string
}

// NewMessage builds a message, enforcing the argument rules of command.
func NewMessage(prefix string, command Command, args ...string) (*Message, error) {
	if !command.Known() {
		return nil, errors.Wrapf(ErrInvalidMessage, "unknown command %q", string(command))
	}
	if strings.ContainsAny(prefix, " \r\n\x00") {
		return nil, errors.Wrapf(ErrInvalidMessage, "bad prefix %q", prefix)
	}
	if len(args) > MaxArgs {
		return nil, errors.Wrapf(ErrInvalidMessage, "%s has %d arguments, at most %d allowed", command, len(args), MaxArgs)
	}

	a := command.arity()
	if len(args) < a.min || (a.max >= 0 && len(args) > a.max) {
		return nil, errors.Wrapf(ErrInvalidMessage, "%s takes %s, got %d", command, a, len(args))
	}

	for i, arg := range args {
		if strings.ContainsAny(arg, "\r\n\x00") {
			return nil, errors.Wrapf(ErrInvalidMessage, "%s argument %d contains a line break or NUL", command, i)
		}
		if i < len(args)-1 && !isMiddle(arg) {
			return nil, errors.Wrapf(ErrInvalidMessage, "%s argument %d (%q) may only be the last argument", command, i, arg)
		}
	}

	return &Message{
		prefix:  prefix,
		command: command,
		args:    append([]string(nil), args...),
	}, nil
}

// MustMessage is like NewMessage but panics on error. It is meant for
// messages built from constants.
func MustMessage(prefix string, command Command, args ...string) *Message {
	msg, err := NewMessage(prefix, command, args...)
	if err != nil {
		panic(err)
	}
	return msg
}

// ParseMessage decodes a single line (with or without its CRLF).
func ParseMessage(line string) (*Message, error) {
	line = strings.TrimRight(line, "\r\n")

	raw, err := ircmsg.ParseLine(line)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidMessage, "%s: %q", err.Error(), line)
	}

	msg, err := NewMessage(raw.Source, Command(strings.ToUpper(raw.Command)), raw.Params...)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", line)
	}
	return msg, nil
}

// Prefix returns the origin of the message, or "" if it had none.
func (msg *Message) Prefix() string {
	return msg.prefix
}

// Source returns the parsed prefix.
func (msg *Message) Source() Mask {
	return ParseMask(msg.prefix)
}

// Command returns the message type.
func (msg *Message) Command() Command {
	return msg.command
}

// Args returns a copy of the arguments.
func (msg *Message) Args() []string {
	return append([]string(nil), msg.args...)
}

// NumArgs returns the number of arguments.
func (msg *Message) NumArgs() int {
	return len(msg.args)
}

// Arg returns argument i, or "" if there is no such argument.
func (msg *Message) Arg(i int) string {
	if i < 0 || i >= len(msg.args) {
		return ""
	}
	return msg.args[i]
}

// Trailing returns the last argument, or "" if there are none.
func (msg *Message) Trailing() string {
	return msg.Arg(len(msg.args) - 1)
}

// Line encodes the message for the wire, including the trailing CRLF.
func (msg *Message) Line() string {
	var b strings.Builder

	if msg.prefix != "" {
		b.WriteByte(':')
		b.WriteString(msg.prefix)
		b.WriteByte(' ')
	}
	b.WriteString(string(msg.command))

	last := len(msg.args) - 1
	for i, arg := range msg.args {
		b.WriteByte(' ')
		if i == last && (freeText[msg.command] || !isMiddle(arg)) {
			b.WriteByte(':')
		}
		b.WriteString(arg)
	}

	b.WriteString("\r\n")
	return b.String()
}

// String returns the encoded line without its CRLF.
func (msg *Message) String() string {
	return strings.TrimSuffix(msg.Line(), "\r\n")
}

// isMiddle reports whether arg can be sent without a leading colon.
func isMiddle(arg string) bool {
	return arg != "" && arg[0] != ':' && !strings.Contains(arg, " ")
}

func (a arity) String() string {
	switch {
	case a.max < 0:
		return "any number of arguments"
	case a.min == a.max:
		return pluralArgs(a.min)
	case a.min == 0:
		return "at most " + pluralArgs(a.max)
	default:
		return "between " + strconv.Itoa(a.min) + " and " + pluralArgs(a.max)
	}
}

func pluralArgs(n int) string {
	if n == 1 {
		return "1 argument"
	}
	return strconv.Itoa(n) + " arguments"
}
