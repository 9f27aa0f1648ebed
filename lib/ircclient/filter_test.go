package ircclient

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

var filterSamples = []*Message{
	MustMessage("alice!al@example.com", CmdPrivmsg, "#chan", "hi"),
	MustMessage("Bob!bob@example.org", CmdJoin, "#Chan"),
	MustMessage("irc.example.net", RPL_NAMREPLY, "bot", "=", "#chan", "alice @bob"),
	MustMessage("irc.example.net", RPL_ENDOFNAMES, "bot", "#chan", "End of /NAMES list."),
	MustMessage("", CmdPing, "token"),
}

func TestPrimitiveFilters(t *testing.T) {
	privmsg, join, names, endOfNames, ping := filterSamples[0], filterSamples[1], filterSamples[2], filterSamples[3], filterSamples[4]

	tests := []struct {
		name   string
		filter Filter
		msg    *Message
		want   bool
	}{
		{"any", Any(), ping, true},
		{"type match", Type(CmdPrivmsg), privmsg, true},
		{"type one of", Type(CmdNotice, CmdJoin), join, true},
		{"type miss", Type(CmdNotice), privmsg, false},
		{"arg", Arg(0, "#chan"), privmsg, true},
		{"arg case sensitive", Arg(0, "#chan"), join, false},
		{"arg fold", ArgFold(0, "#chan"), join, true},
		{"arg out of range", Arg(3, "x"), privmsg, false},
		{"args wildcard gaps", Args(map[int]string{0: "bot", 2: "#chan"}), names, true},
		{"args mismatch", Args(map[int]string{0: "bot", 1: "#chan"}), names, false},
		{"prefix nick", Prefix("ALICE", "", ""), privmsg, true},
		{"prefix user", Prefix("", "al", ""), privmsg, true},
		{"prefix host miss", Prefix("alice", "", "example.org"), privmsg, false},
		{"prefix server", Prefix("irc.example.net", "", ""), endOfNames, true},
		{"prefix none", Prefix("alice", "", ""), ping, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Check(tt.msg))
		})
	}
}

func TestCombinatorLaws(t *testing.T) {
	filters := []Filter{
		Any(),
		Type(CmdPrivmsg),
		ArgFold(0, "#chan"),
		Prefix("bob", "", ""),
		Not(Any()),
	}

	for _, m := range filterSamples {
		for _, f1 := range filters {
			assert.Equal(t, !f1.Check(m), Not(f1).Check(m))
			for _, f2 := range filters {
				assert.Equal(t, f1.Check(m) && f2.Check(m), And(f1, f2).Check(m))
				assert.Equal(t, f1.Check(m) || f2.Check(m), Or(f1, f2).Check(m))
			}
		}
	}

	assert.True(t, And().Check(filterSamples[0]))
	assert.False(t, Or().Check(filterSamples[0]))
}

func TestOnceReportsOneMatch(t *testing.T) {
	once := Once(Type(CmdPing))
	assert.False(t, once.Check(filterSamples[0]))
	assert.True(t, once.Check(filterSamples[4]))
	assert.False(t, once.Check(filterSamples[4]))
}

func TestOnceConcurrent(t *testing.T) {
	once := Once(Any())

	var matches atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if once.Check(filterSamples[0]) {
					matches.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), matches.Load())
}

func TestRangeSequence(t *testing.T) {
	a := MustMessage("", RPL_NAMREPLY, "bot", "=", "#c", "a")
	b := MustMessage("", RPL_NAMREPLY, "bot", "=", "#c", "b")
	c := MustMessage("", RPL_ENDOFNAMES, "bot", "#c", "end")
	d := MustMessage("", RPL_NAMREPLY, "bot", "=", "#c", "d")

	r := Range(Type(RPL_NAMREPLY), Type(RPL_ENDOFNAMES))
	assert.True(t, r.Check(a))
	assert.True(t, r.Check(b))
	select {
	case <-r.Done():
		t.Fatal("range done before terminal message")
	default:
	}
	assert.True(t, r.Check(c))
	assert.False(t, r.Check(d))

	assert.True(t, r.IsTerminal(c))
	assert.False(t, r.IsTerminal(b))

	select {
	case <-r.Done():
	default:
		t.Fatal("range not done after terminal message")
	}
}

func TestRangeNilMatch(t *testing.T) {
	r := Range(nil, Type(RPL_ENDOFNAMES))
	assert.False(t, r.Check(filterSamples[2]))
	assert.True(t, r.Check(filterSamples[3]))
	assert.False(t, r.Check(filterSamples[3]))
}

func TestRangeTerminatesOnce(t *testing.T) {
	r := Range(nil, Any())

	var matches atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Check(filterSamples[0]) {
				matches.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), matches.Load())
}
