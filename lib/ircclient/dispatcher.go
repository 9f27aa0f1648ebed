// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c2nes/ircbot/lib/worker"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultMailboxSize is the number of messages a subscription may have
// queued before further matches are dropped.
const DefaultMailboxSize = 1024

// mailboxStopTimeout bounds how long Close waits for a busy handler.
const mailboxStopTimeout = 5 * time.Second

// Handler receives the messages matched by a subscription.
type Handler func(msg *Message)

// Handle identifies a subscription.
type Handle struct {
	id uuid.UUID
}

// IsZero reports whether h was never returned by Subscribe.
func (h Handle) IsZero() bool {
	return h.id == uuid.Nil
}

func (h Handle) String() string {
	return h.id.String()
}

type subscription struct {
	handle  Handle
	filter  Filter
	handler Handler
	mailbox *worker.Pool[*Message]
	removed atomic.Bool
}

// Dispatcher fans inbound messages out to subscriptions. Each subscription
// has its own bounded mailbox and goroutine, so handlers never block
// ingestion or each other, and every handler sees its messages in arrival
// order.
type Dispatcher struct {
	log         zerolog.Logger
	metrics     *Metrics
	mailboxSize int

	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes writers of subs. Dispatch only loads the snapshot.
	mu     sync.Mutex
	subs   atomic.Pointer[[]*subscription]
	closed bool
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger sets the logger used for drops and handler panics.
func WithDispatcherLogger(log zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.log = log
	}
}

// WithDispatcherMetrics records dispatch metrics into m.
func WithDispatcherMetrics(m *Metrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithMailboxSize sets the per-subscription queue capacity.
func WithMailboxSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.mailboxSize = n
		}
	}
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		log:         zerolog.Nop(),
		mailboxSize: DefaultMailboxSize,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.ctx, d.cancel = context.WithCancel(context.Background())
	empty := []*subscription{}
	d.subs.Store(&empty)
	return d
}

// Subscribe registers handler for every message f accepts. Each call creates
// an independent subscription. Subscribing to a closed dispatcher returns a
// zero Handle and the handler is never called.
func (d *Dispatcher) Subscribe(f Filter, handler Handler) Handle {
	sub := &subscription{
		handle:  Handle{id: uuid.New()},
		filter:  f,
		handler: handler,
	}
	sub.mailbox = worker.NewPool(1, d.mailboxSize, func(_ context.Context, msg *Message) error {
		return d.deliver(sub, msg)
	}, worker.WithErrorHandler(func(msg *Message, err error) {
		d.handlerFailed(sub, msg, err)
	}))

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return Handle{}
	}

	if err := sub.mailbox.Start(d.ctx); err != nil {
		d.log.Error().Err(err).Msg("could not start subscription mailbox")
		return Handle{}
	}

	old := *d.subs.Load()
	next := make([]*subscription, len(old), len(old)+1)
	copy(next, old)
	next = append(next, sub)
	d.subs.Store(&next)
	d.metrics.setSubscriptions(len(next))

	return sub.handle
}

// Unsubscribe removes a subscription. Once it returns, the handler is not
// invoked again; messages still queued for it are discarded. It reports
// whether the handle was live.
func (d *Dispatcher) Unsubscribe(h Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := *d.subs.Load()
	for i, sub := range old {
		if sub.handle != h {
			continue
		}

		sub.removed.Store(true)
		sub.mailbox.Close()

		next := make([]*subscription, 0, len(old)-1)
		next = append(next, old[:i]...)
		next = append(next, old[i+1:]...)
		d.subs.Store(&next)
		d.metrics.setSubscriptions(len(next))
		return true
	}

	return false
}

// Dispatch hands msg to the mailbox of every subscription whose filter
// accepts it. It never blocks on a handler.
func (d *Dispatcher) Dispatch(msg *Message) {
	for _, sub := range *d.subs.Load() {
		if sub.removed.Load() || !sub.filter.Check(msg) {
			continue
		}

		err := sub.mailbox.Submit(msg)
		switch {
		case err == nil:
			d.metrics.recordDelivery()
		case errors.Is(err, worker.ErrQueueFull):
			d.dropped(sub, msg)
		default:
			// Unsubscribed between the snapshot and now.
		}
	}
}

// Len returns the number of live subscriptions.
func (d *Dispatcher) Len() int {
	return len(*d.subs.Load())
}

// Close removes every subscription and waits briefly for running handlers
// to return. Later Subscribe calls are no-ops.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	subs := *d.subs.Load()
	empty := []*subscription{}
	d.subs.Store(&empty)
	d.metrics.setSubscriptions(0)
	d.mu.Unlock()

	for _, sub := range subs {
		sub.removed.Store(true)
	}
	for _, sub := range subs {
		if err := sub.mailbox.Stop(mailboxStopTimeout); err != nil {
			d.log.Warn().Err(err).Str("subscription", sub.handle.String()).Msg("handler did not return in time")
		}
	}
	d.cancel()
}

func (d *Dispatcher) dropped(sub *subscription, msg *Message) {
	d.metrics.recordDrop()
	stats := sub.mailbox.Stats()

	// A dropped terminal message would leave its request waiting for
	// something that can no longer arrive.
	if r, ok := sub.filter.(*RangeFilter); ok && r.IsTerminal(msg) {
		r.markLost()
		d.log.Error().
			Str("subscription", sub.handle.String()).
			Str("line", msg.String()).
			Int("queued", stats.QueueDepth).
			Int64("dropped", stats.Dropped).
			Msg("subscription mailbox full, dropped final reply of a request")
		return
	}

	d.log.Warn().
		Str("subscription", sub.handle.String()).
		Str("command", string(msg.Command())).
		Int("queued", stats.QueueDepth).
		Int64("dropped", stats.Dropped).
		Msg("subscription mailbox full, dropping message")
}

// handlerPanic is a panic recovered from a handler.
type handlerPanic struct {
	value interface{}
	stack []byte
}

func (p *handlerPanic) Error() string {
	return fmt.Sprintf("handler panicked: %v", p.value)
}

func (d *Dispatcher) deliver(sub *subscription, msg *Message) (err error) {
	if sub.removed.Load() {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &handlerPanic{value: r, stack: debug.Stack()}
		}
	}()

	sub.handler(msg)
	return nil
}

func (d *Dispatcher) handlerFailed(sub *subscription, msg *Message, err error) {
	event := d.log.Error().
		Err(err).
		Str("subscription", sub.handle.String()).
		Str("line", msg.String())

	var p *handlerPanic
	if errors.As(err, &p) {
		d.metrics.recordPanic()
		event = event.Bytes("stack", p.stack)
	}
	event.Msg("message handler failed")
}
