package ircComponentLogger

// MessageStore keeps formatted channel history.
type MessageStore interface {
	Store(network string, channel string, line string) error
}
