// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"strings"
)

// Mask is a message origin split into its parts. A bare server name lands in
// Nick.
type Mask struct {
	Nick string
	User string
	Host string
}

// ParseMask splits nick!user@host. Missing parts are left empty.
func ParseMask(mask string) Mask {
	var m Mask

	pos := strings.Index(mask, "!")
	if pos > -1 {
		m.Nick = mask[0:pos]
		mask = mask[pos+1:]
	} else {
		pos = strings.Index(mask, "@")
		if pos > -1 {
			m.Nick = mask[0:pos]
			m.Host = mask[pos+1:]
		} else {
			m.Nick = mask
		}
		return m
	}

	pos = strings.Index(mask, "@")
	if pos > -1 {
		m.User = mask[0:pos]
		m.Host = mask[pos+1:]
	} else {
		m.User = mask
	}

	return m
}

func (m Mask) String() string {
	s := m.Nick
	if m.User != "" {
		s += "!" + m.User
	}
	if m.Host != "" {
		s += "@" + m.Host
	}
	return s
}
