// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// released under the MIT license

package ircbot

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/secure/precis"
)

var (
	errNameBadChar = errors.New("Name contained a disallowed character")
	errNameDigit   = errors.New("The first character of a name cannot be a digit")
	errNameSpace   = errors.New("Names cannot contain whitespace")
	errNameNil     = errors.New("Names need to be at least one character long")
)

// NetworkName takes the given name and returns a casefolded name appropriate
// for use as a datastore key.
func NetworkName(name string) (string, error) {
	name, err := precis.UsernameCaseMapped.CompareKey(strings.TrimSpace(name))
	if err != nil {
		return "", errors.Wrap(err, "network name")
	}

	if len(name) < 1 {
		return "", errNameNil
	}

	for _, char := range name {
		// exclude space characters
		if unicode.IsSpace(char) {
			return "", errNameSpace
		}
		// exclude other characters that seem like they could be bad
		if strings.Contains(",.=!@#*%&$/\\", string(char)) {
			return "", errNameBadChar
		}
	}

	if strings.Contains("0123456789", string(name[0])) {
		return "", errNameDigit
	}

	return name, nil
}
