// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircbot

import (
	"fmt"
)

const (
	// SemVer is the semantic version of ircbot.
	SemVer = "0.1.0-unreleased"
)

var (
	// Ver is the full version of ircbot, used as the default realname and
	// quit message.
	Ver = fmt.Sprintf("ircbot-%s", SemVer)
)
