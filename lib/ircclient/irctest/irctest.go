// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

// Package irctest provides an in-memory IRC server connection for tests.
package irctest

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/c2nes/ircbot/lib/ircclient"
)

// Timeout bounds every wait in this package.
var Timeout = 2 * time.Second

// Server is both a Dialer and the single Transport it hands out. Tests play
// the server side with Send and Expect.
type Server struct {
	in        chan string
	out       chan string
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	dialed bool
}

func NewServer() *Server {
	return &Server{
		in:     make(chan string, 256),
		out:    make(chan string, 256),
		closed: make(chan struct{}),
	}
}

// Dial implements ircclient.Dialer. A server can only be dialled once.
func (s *Server) Dial(ctx context.Context) (ircclient.Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dialed {
		return nil, io.ErrClosedPipe
	}
	s.dialed = true
	return s, nil
}

func (s *Server) ReadLine() (string, error) {
	select {
	case line := <-s.in:
		return line, nil
	case <-s.closed:
		return "", io.EOF
	}
}

func (s *Server) WriteLine(line string) error {
	select {
	case <-s.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case s.out <- strings.TrimRight(line, "\r\n"):
		return nil
	case <-s.closed:
		return io.ErrClosedPipe
	}
}

func (s *Server) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

// Closed is closed once either side closes the connection.
func (s *Server) Closed() <-chan struct{} {
	return s.closed
}

// Send delivers lines to the client.
func (s *Server) Send(lines ...string) {
	for _, line := range lines {
		s.in <- line
	}
}

// Next returns the next line the client wrote, without its CRLF.
func (s *Server) Next() (string, bool) {
	select {
	case line := <-s.out:
		return line, true
	case <-time.After(Timeout):
		return "", false
	}
}

// Expect fails the test unless the next line the client writes is line.
func (s *Server) Expect(tb testing.TB, line string) {
	tb.Helper()

	got, ok := s.Next()
	if !ok {
		tb.Fatalf("timed out waiting for %q", line)
	}
	if got != line {
		tb.Fatalf("expected %q, got %q", line, got)
	}
}
