// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultMaxLineLength bounds inbound lines on stream transports.
const DefaultMaxLineLength = 8 * 1024

// Transport moves framed lines to and from the server.
type Transport interface {
	// ReadLine returns the next line without its CRLF. An error means the
	// connection is gone.
	ReadLine() (string, error)
	// WriteLine writes one encoded line.
	WriteLine(line string) error
	// Close closes the connection. It is idempotent.
	Close() error
}

// Dialer opens transports.
type Dialer interface {
	Dial(ctx context.Context) (Transport, error)
}

// SocketDialer connects over TCP, optionally wrapped in TLS.
type SocketDialer struct {
	Address       string
	TLS           bool
	TLSConfig     *tls.Config
	Timeout       time.Duration
	MaxLineLength int
}

// Dial implements Dialer.
func (d *SocketDialer) Dial(ctx context.Context) (Transport, error) {
	netDialer := &net.Dialer{Timeout: d.Timeout}

	var conn net.Conn
	var err error
	if d.TLS {
		tlsDialer := &tls.Dialer{NetDialer: netDialer, Config: d.TLSConfig}
		conn, err = tlsDialer.DialContext(ctx, "tcp", d.Address)
	} else {
		conn, err = netDialer.DialContext(ctx, "tcp", d.Address)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", d.Address)
	}

	return NewSocket(conn, d.MaxLineLength), nil
}

// Socket is a Transport over a stream connection.
type Socket struct {
	conn    net.Conn
	scanner *bufio.Scanner

	connLock  sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewSocket wraps conn. Inbound lines longer than maxLineLength are treated
// as a read failure.
func NewSocket(conn net.Conn, maxLineLength int) *Socket {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 512), maxLineLength)

	return &Socket{
		conn:    conn,
		scanner: scanner,
	}
}

// ReadLine implements Transport. It is not safe for concurrent use.
func (socket *Socket) ReadLine() (string, error) {
	if !socket.scanner.Scan() {
		if err := socket.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(socket.scanner.Text(), "\r"), nil
}

// WriteLine implements Transport.
func (socket *Socket) WriteLine(line string) error {
	if !strings.HasSuffix(line, "\n") {
		line += "\r\n"
	}

	socket.connLock.Lock()
	defer socket.connLock.Unlock()
	_, err := io.WriteString(socket.conn, line)
	return err
}

// Close implements Transport.
func (socket *Socket) Close() error {
	socket.closeOnce.Do(func() {
		socket.closeErr = socket.conn.Close()
	})
	return socket.closeErr
}
