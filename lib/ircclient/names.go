// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircclient

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// channelPrefixes are the characters a channel name may start with.
const channelPrefixes = "#&+!"

// IsChannel reports whether name looks like a channel rather than a nick.
func IsChannel(name string) bool {
	return name != "" && strings.ContainsRune(channelPrefixes, rune(name[0]))
}

// ChannelName validates a channel name and returns it trimmed.
func ChannelName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if !IsChannel(name) {
		return "", errors.Wrapf(ErrInvalidName, "%q is not a channel", name)
	}
	return checkName(name, ",\a\x00")
}

// NickName validates a nickname and returns it trimmed.
func NickName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name != "" && (IsChannel(name) || name[0] == ':' || unicode.IsDigit(rune(name[0]))) {
		return "", errors.Wrapf(ErrInvalidName, "%q cannot start with %q", name, name[0])
	}
	return checkName(name, ",.!@#?*")
}

func checkName(name, disallowed string) (string, error) {
	if len(name) < 1 {
		return "", errors.Wrap(ErrInvalidName, "names need to be at least one character long")
	}

	for _, char := range name {
		if unicode.IsSpace(char) || unicode.IsControl(char) {
			return "", errors.Wrapf(ErrInvalidName, "%q contains whitespace", name)
		}
		if strings.ContainsRune(disallowed, char) {
			return "", errors.Wrapf(ErrInvalidName, "%q contains %q", name, char)
		}
	}

	return name, nil
}
