// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// DefaultRequestTimeout applies to requests whose context has no deadline.
const DefaultRequestTimeout = 30 * time.Second

// Sender writes messages to the server.
type Sender interface {
	Send(msgs ...*Message) error
}

// RequestBridge turns the asynchronous reply stream into blocking calls.
type RequestBridge struct {
	dispatcher *Dispatcher
	sender     Sender
	timeout    time.Duration
	metrics    *Metrics
}

// NewRequestBridge creates a bridge sending through sender and collecting
// replies from d. A zero timeout leaves context-less requests unbounded.
func NewRequestBridge(d *Dispatcher, sender Sender, timeout time.Duration, metrics *Metrics) *RequestBridge {
	return &RequestBridge{
		dispatcher: d,
		sender:     sender,
		timeout:    timeout,
		metrics:    metrics,
	}
}

// Request sends msgs and waits for the first message accepted by last. It
// returns every message accepted by match up to and including that final
// one, in arrival order. A nil match returns only the final message.
//
// When ctx ends first the reply subscription is removed and the returned
// error matches ErrRequestCancelled.
func (b *RequestBridge) Request(ctx context.Context, match, last Filter, msgs ...*Message) ([]*Message, error) {
	if _, ok := ctx.Deadline(); !ok && b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	replies := Range(match, last)

	var (
		mu        sync.Mutex
		collected []*Message
		done      = make(chan struct{})
	)
	handle := b.dispatcher.Subscribe(replies, func(msg *Message) {
		mu.Lock()
		collected = append(collected, msg)
		mu.Unlock()

		if replies.IsTerminal(msg) {
			close(done)
		}
	})
	if handle.IsZero() {
		return nil, errors.Wrap(ErrNotConnected, "dispatcher closed")
	}
	defer b.dispatcher.Unsubscribe(handle)

	if err := b.sender.Send(msgs...); err != nil {
		b.metrics.recordRequest("error", time.Since(start))
		return nil, err
	}

	select {
	case <-done:
	case <-replies.lost:
		b.metrics.recordRequest("dropped", time.Since(start))
		return nil, errors.Wrap(ErrRequestCancelled, "final reply was dropped")
	case <-ctx.Done():
		select {
		case <-done:
		default:
			b.metrics.recordRequest("cancelled", time.Since(start))
			return nil, &RequestCancelledError{Cause: context.Cause(ctx)}
		}
	}

	b.metrics.recordRequest("ok", time.Since(start))

	mu.Lock()
	defer mu.Unlock()
	return append([]*Message(nil), collected...), nil
}
