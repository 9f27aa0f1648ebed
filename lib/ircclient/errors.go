// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"github.com/pkg/errors"
)

var (
	// ErrInvalidMessage is returned when a line cannot be decoded or a
	// message violates the argument rules of its command.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrNotConnected is returned when sending without a live transport.
	ErrNotConnected = errors.New("not connected")

	// ErrNicknameInUse is returned when the server rejects our nickname,
	// either during registration or on a live nick change.
	ErrNicknameInUse = errors.New("nickname in use")

	// ErrRequestCancelled is returned when a blocking request was cancelled
	// or timed out before its final reply arrived.
	ErrRequestCancelled = errors.New("request cancelled")

	// ErrJoinRejected is returned when the server refuses a JOIN.
	ErrJoinRejected = errors.New("join rejected")

	// ErrInvalidName is returned for unusable nick or channel names.
	ErrInvalidName = errors.New("invalid name")
)

// RequestCancelledError is the concrete error behind ErrRequestCancelled. It
// unwraps to the context error that caused the cancellation.
type RequestCancelledError struct {
	Cause error
}

func (e *RequestCancelledError) Error() string {
	if e.Cause == nil {
		return ErrRequestCancelled.Error()
	}
	return ErrRequestCancelled.Error() + ": " + e.Cause.Error()
}

// Is reports ErrRequestCancelled as a match.
func (e *RequestCancelledError) Is(target error) bool {
	return target == ErrRequestCancelled
}

func (e *RequestCancelledError) Unwrap() error {
	return e.Cause
}
