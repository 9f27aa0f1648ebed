// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircComponentLoader

import (
	"github.com/c2nes/ircbot/lib"

	// Different parts of the project acting independantly
	"github.com/c2nes/ircbot/lib/components/control"
	"github.com/c2nes/ircbot/lib/components/messageLogger"
)

func Run(manager *ircbot.Manager) {
	ircComponentControl.Run(manager)
	ircComponentLogger.Run(manager)
}
