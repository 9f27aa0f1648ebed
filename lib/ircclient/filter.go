// Copyright (c) 2017 Darren Whitlen <darren@kiwiirc.com>
// released under the MIT license

package ircclient

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Filter is a predicate over messages.
type Filter interface {
	Check(msg *Message) bool
}

// FilterFunc adapts a plain function to Filter.
type FilterFunc func(msg *Message) bool

// Check calls f(msg).
func (f FilterFunc) Check(msg *Message) bool {
	return f(msg)
}

// Any matches every message.
func Any() Filter {
	return FilterFunc(func(*Message) bool { return true })
}

// Type matches messages of any of the given commands.
func Type(cmds ...Command) Filter {
	set := make(map[Command]struct{}, len(cmds))
	for _, cmd := range cmds {
		set[cmd] = struct{}{}
	}
	return FilterFunc(func(msg *Message) bool {
		_, ok := set[msg.command]
		return ok
	})
}

// Arg matches messages whose argument at pos equals value.
func Arg(pos int, value string) Filter {
	return Args(map[int]string{pos: value})
}

// Args matches messages whose arguments equal the given values at each
// listed position. Unlisted positions match anything.
func Args(values map[int]string) Filter {
	return argsFilter(values, func(a, b string) bool { return a == b })
}

// ArgFold is Arg with case-insensitive comparison, for nicks and channels.
func ArgFold(pos int, value string) Filter {
	return argsFilter(map[int]string{pos: value}, strings.EqualFold)
}

func argsFilter(values map[int]string, eq func(a, b string) bool) Filter {
	want := make(map[int]string, len(values))
	for pos, v := range values {
		want[pos] = v
	}
	return FilterFunc(func(msg *Message) bool {
		for pos, v := range want {
			if pos < 0 || pos >= len(msg.args) || !eq(msg.args[pos], v) {
				return false
			}
		}
		return true
	})
}

// Prefix matches on the message origin. Empty parts are wildcards, and the
// nick is compared case-insensitively.
func Prefix(nick, user, host string) Filter {
	return FilterFunc(func(msg *Message) bool {
		src := msg.Source()
		if nick != "" && !strings.EqualFold(src.Nick, nick) {
			return false
		}
		if user != "" && src.User != user {
			return false
		}
		if host != "" && src.Host != host {
			return false
		}
		return true
	})
}

// And matches when every filter matches. An empty And matches everything.
func And(filters ...Filter) Filter {
	return FilterFunc(func(msg *Message) bool {
		for _, f := range filters {
			if !f.Check(msg) {
				return false
			}
		}
		return true
	})
}

// Or matches when any filter matches. An empty Or matches nothing.
func Or(filters ...Filter) Filter {
	return FilterFunc(func(msg *Message) bool {
		for _, f := range filters {
			if f.Check(msg) {
				return true
			}
		}
		return false
	})
}

// Not negates f.
func Not(f Filter) Filter {
	return FilterFunc(func(msg *Message) bool {
		return !f.Check(msg)
	})
}

// OnceFilter matches the first message its inner filter accepts and nothing
// after that. An instance must not be shared between operations.
type OnceFilter struct {
	inner Filter
	fired atomic.Bool
}

// Once wraps f so it reports exactly one match.
func Once(f Filter) *OnceFilter {
	return &OnceFilter{inner: f}
}

// Check reports true at most once over the lifetime of the filter.
func (o *OnceFilter) Check(msg *Message) bool {
	if o.fired.Load() || !o.inner.Check(msg) {
		return false
	}
	return o.fired.CompareAndSwap(false, true)
}

// RangeFilter matches every message accepted by match until one accepted by
// last arrives. That terminal message matches too, and the range then
// rejects everything. An instance must not be shared between operations.
type RangeFilter struct {
	match Filter
	last  Filter

	terminated atomic.Bool
	done       chan struct{}
	doneOnce   sync.Once

	// lost is closed when the terminal message was dropped before it
	// could be delivered.
	lost     chan struct{}
	lostOnce sync.Once

	mu       sync.Mutex
	terminal *Message
}

// Range builds a range bounded by last. A nil match makes the range accept
// only the terminal message.
func Range(match, last Filter) *RangeFilter {
	return &RangeFilter{
		match: match,
		last:  last,
		done:  make(chan struct{}),
		lost:  make(chan struct{}),
	}
}

// Check implements Filter.
func (r *RangeFilter) Check(msg *Message) bool {
	if r.terminated.Load() {
		return false
	}
	if r.last.Check(msg) {
		if !r.terminated.CompareAndSwap(false, true) {
			return false
		}
		r.mu.Lock()
		r.terminal = msg
		r.mu.Unlock()
		r.doneOnce.Do(func() { close(r.done) })
		return true
	}
	return r.match != nil && r.match.Check(msg)
}

// Done is closed once the range has seen its terminal message.
func (r *RangeFilter) Done() <-chan struct{} {
	return r.done
}

func (r *RangeFilter) markLost() {
	r.lostOnce.Do(func() { close(r.lost) })
}

// IsTerminal reports whether msg is the message that terminated the range.
func (r *RangeFilter) IsTerminal(msg *Message) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.terminal != nil && r.terminal == msg
}
