// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/rs/zerolog"

	"github.com/c2nes/ircbot/lib"
	"github.com/c2nes/ircbot/lib/components/control"
	"github.com/c2nes/ircbot/lib/datastores/buntdb"
	"github.com/c2nes/ircbot/lib/setup"

	// Different parts of the project acting independantly
	"github.com/c2nes/ircbot/lib/components/componentLoader"
)

func main() {
	usage := `ircbot.

ircbot is an IRC bot that keeps a set of channels joined and takes
commands from its owner.

Usage:
	ircbot init [--conf <filename>]
	ircbot start [--conf <filename>]
	ircbot channels [--conf <filename>]
	ircbot -h | --help
	ircbot --version

Options:
	--conf <filename>  Configuration file to use [default: ircbot.yaml].
	-h --help          Show this screen.
	--version          Show version.`

	arguments, _ := docopt.Parse(usage, nil, true, ircbot.SemVer, false)

	configfile := arguments["--conf"].(string)
	config, err := ircbot.LoadConfig(configfile)
	if err != nil {
		log.Fatal("Config file did not load successfully: ", err.Error())
	}

	logger := newLogger(os.Stderr, config)

	data := &ircDataStoreBuntdb.DataStore{}
	manager := ircbot.NewManager(config, data, logger)

	if err := data.Init(manager); err != nil {
		logger.Fatal().Err(err).Msg("could not open the database")
	}
	defer data.Close()

	if arguments["init"].(bool) {
		if err := ircsetup.InitialSetup(manager); err != nil {
			logger.Fatal().Err(err).Msg("setup failed")
		}

	} else if arguments["start"].(bool) {
		fmt.Println("Starting", ircsetup.CbCyan("ircbot"))

		// Start the different components
		ircComponentLoader.Run(manager)

		if err := manager.Run(context.Background()); err != nil {
			logger.Fatal().Err(err).Msg("bot stopped")
		}

	} else if arguments["channels"].(bool) {
		if err := printChannels(os.Stdout, manager); err != nil {
			logger.Fatal().Err(err).Msg("could not list channels")
		}
	}
}

func newLogger(out io.Writer, config *ircbot.Config) zerolog.Logger {
	if !config.Logging.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(config.LogLevel()).With().Timestamp().Logger()
}

func printChannels(out io.Writer, manager *ircbot.Manager) error {
	network, err := ircbot.NetworkName(manager.Config.Network)
	if err != nil {
		return err
	}
	channels, err := manager.Ds.GetChannels(network)
	if err != nil {
		return err
	}

	if len(channels) == 0 {
		fmt.Fprintln(out, "No stored channels for", network)
		return nil
	}

	table := ircComponentControl.NewTable()
	table.SetHeader([]string{"Channel", "Key"})
	for _, channel := range channels {
		table.Append([]string{channel.Name, strings.Repeat("*", len(channel.Key))})
	}
	_, err = io.WriteString(out, table.RenderToString())
	return err
}
