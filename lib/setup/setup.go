// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircsetup

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/c2nes/ircbot/lib"
	"github.com/c2nes/ircbot/lib/ircclient"
	"github.com/fatih/color"
	"github.com/pkg/errors"
)

var (
	CbBlue   = color.New(color.Bold, color.FgHiBlue).SprintfFunc()
	CbCyan   = color.New(color.Bold, color.FgHiCyan).SprintfFunc()
	CbYellow = color.New(color.Bold, color.FgHiYellow).SprintfFunc()
	CbRed    = color.New(color.Bold, color.FgHiRed).SprintfFunc()
)

var (
	input = bufio.NewReader(os.Stdin)

	// readPassword reads a line from the terminal without echoing it.
	readPassword = func() (string, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return readLine()
		}
		response, err := term.ReadPassword(fd)
		fmt.Print("\n")
		return string(response), err
	}
)

// Section displays a section to the user
func Section(text string) {
	Note("")
	fmt.Println(CbBlue("["), CbYellow("**"), CbBlue("]"), "--", text, "--")
	Note("")
}

// Note displays a note to the user
func Note(text string) {
	fmt.Println(CbBlue("["), CbYellow("**"), CbBlue("]"), text)
}

func readLine() (string, error) {
	response, err := input.ReadString('\n')
	if err != nil && response == "" {
		return "", err
	}
	return strings.TrimRight(response, "\r\n"), nil
}

// Query asks for a value from the user
func Query(prompt string) (string, error) {
	fmt.Print(CbBlue("[ "), CbYellow("??"), CbBlue(" ] "), prompt)
	return readLine()
}

// QueryNoEcho asks for a value from the user without echoing what they type
func QueryNoEcho(prompt string) (string, error) {
	fmt.Print(CbBlue("[ "), CbYellow("??"), CbBlue(" ] "), prompt)
	return readPassword()
}

// QueryDefault asks for a value, falling back to a default
func QueryDefault(prompt string, defaultValue string) (string, error) {
	response, err := Query(prompt)

	if err != nil {
		return "", err
	}

	if len(strings.TrimSpace(response)) < 1 {
		return defaultValue, nil
	}
	return strings.TrimSpace(response), nil
}

// QueryBool asks for a true/false value from the user
func QueryBool(prompt string) (bool, error) {
	for {
		response, err := Query(prompt)
		if err != nil {
			return false, err
		}

		response = strings.ToLower(strings.TrimSpace(response))
		if len(response) < 1 {
			continue
		}

		// check for yes/true/1 or no/false/0
		if strings.Contains("yt1", string(response[0])) {
			return true, nil
		} else if strings.Contains("nf0", string(response[0])) {
			return false, nil
		}
	}
}

// QueryName asks for a value until check accepts it.
func QueryName(prompt string, defaultValue string, check func(string) (string, error)) (string, error) {
	for {
		response, err := QueryDefault(prompt, defaultValue)
		if err != nil {
			return "", err
		}

		name, err := check(response)
		if err == nil {
			return name, nil
		}
		Error(err.Error())
	}
}

// Warn warns the user about something
func Warn(text string) {
	fmt.Println(CbBlue("["), CbRed("**"), CbBlue("]"), text)
}

// Error shows the user an error
func Error(text string) {
	fmt.Println(CbBlue("["), CbRed("!!"), CbBlue("]"), CbRed(text))
}

// InitialSetup asks for the bot's identity and autojoin channels on the
// configured network and stores them.
func InitialSetup(manager *ircbot.Manager) error {
	fmt.Println(CbBlue("["), CbCyan("~~"), CbBlue("]"), "Welcome to", CbCyan("ircbot"))
	Note("We will now run through basic setup.")

	data := manager.Ds
	if err := data.Setup(); err != nil {
		return errors.Wrap(err, "could not initialise the database")
	}

	profile, err := manager.Profile()
	if err != nil {
		return err
	}

	Section(fmt.Sprintf("Identity on %s", profile.Network))

	profile.Nick, err = QueryName(fmt.Sprintf("Enter Nickname [%s]: ", profile.Nick), profile.Nick, ircclient.NickName)
	if err != nil {
		return err
	}

	defaultFallbackNick := fmt.Sprintf("%s_", profile.Nick)
	profile.FallbackNick, err = QueryName(fmt.Sprintf("Enter Fallback Nickname [%s]: ", defaultFallbackNick), defaultFallbackNick, ircclient.NickName)
	if err != nil {
		return err
	}

	profile.Username, err = QueryName(fmt.Sprintf("Enter Username [%s]: ", profile.Username), profile.Username, ircclient.NickName)
	if err != nil {
		return err
	}

	profile.Realname, err = QueryDefault(fmt.Sprintf("Enter Realname [%s]: ", profile.Realname), profile.Realname)
	if err != nil {
		return err
	}

	needsPassword, err := QueryBool("Server needs a connection password? (y/n) ")
	if err != nil {
		return err
	}
	profile.Password = ""
	for needsPassword {
		newPassword, err := QueryNoEcho("Enter password: ")
		if err != nil {
			return errors.Wrap(err, "reading password")
		}

		passwordCompare, err := QueryNoEcho("Confirm password: ")
		if err != nil {
			return errors.Wrap(err, "reading password")
		}

		if newPassword != passwordCompare {
			Warn("The supplied passwords do not match")
			continue
		}

		profile.Password = newPassword
		break
	}

	if err := data.SaveProfile(profile); err != nil {
		return errors.Wrap(err, "could not save profile")
	}

	Section("Channels")

	var channels []string
	for {
		serverChannelsString, err := Query("Channels to autojoin (separated by spaces): ")
		if err != nil {
			return err
		}

		channels = channels[:0]
		var badName error
		for _, channel := range strings.Fields(serverChannelsString) {
			channel, err := ircclient.ChannelName(channel)
			if err != nil {
				badName = err
				break
			}
			channels = append(channels, channel)
		}

		if badName != nil {
			Error(badName.Error())
			continue
		}
		break
	}

	for _, channel := range channels {
		if err := data.SaveChannel(profile.Network, ircbot.ChannelInfo{Name: channel}); err != nil {
			return errors.Wrapf(err, "could not save channel %s", channel)
		}
	}

	fmt.Println(CbBlue("["), CbCyan("~~"), CbBlue("]"), CbCyan("ircbot"), "is now configured!")
	Note("You can now launch ircbot with the start command")
	return nil
}
