// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const websocketWriteTimeout = 10 * time.Second

// WebSocketDialer connects to an IRC-over-WebSocket gateway. Every text frame
// carries one line.
type WebSocketDialer struct {
	URL           string
	TLSConfig     *tls.Config
	Header        http.Header
	MaxLineLength int
}

// Dial implements Dialer.
func (d *WebSocketDialer) Dial(ctx context.Context) (Transport, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 45 * time.Second,
		TLSClientConfig:  d.TLSConfig,
		Subprotocols:     []string{"text.ircv3.net"},
	}

	conn, resp, err := dialer.DialContext(ctx, d.URL, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", d.URL)
	}

	maxLen := d.MaxLineLength
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	conn.SetReadLimit(int64(maxLen))

	return &webSocketTransport{conn: conn}, nil
}

type webSocketTransport struct {
	conn      *websocket.Conn
	writeLock sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (t *webSocketTransport) ReadLine() (string, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return strings.TrimRight(string(data), "\r\n"), nil
		}
	}
}

func (t *webSocketTransport) WriteLine(line string) error {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	if err := t.conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, []byte(strings.TrimRight(line, "\r\n")))
}

func (t *webSocketTransport) Close() error {
	t.closeOnce.Do(func() {
		t.writeLock.Lock()
		deadline := time.Now().Add(time.Second)
		_ = t.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		t.writeLock.Unlock()
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}
