package transport

import "testing"

func TestDropIfKeepsSuccessorConnection(t *testing.T) {
	tr := NewDiscord(nil)

	old := &discordConn{t: tr, guildID: "G1", events: make(chan Event, 1)}
	tr.conns["G1"] = old

	// A replacement session joined the same guild before the old
	// connection finished tearing down.
	repl := &discordConn{t: tr, guildID: "G1", events: make(chan Event, 1)}
	tr.conns["G1"] = repl

	tr.dropIf("G1", old)
	if got := tr.lookup("G1"); got != repl {
		t.Fatal("late drop of a stale connection must not evict its successor")
	}

	tr.dropIf("G1", repl)
	if got := tr.lookup("G1"); got != nil {
		t.Fatal("owning connection should remove its routing entry")
	}
}
