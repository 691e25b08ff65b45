package core

import "testing"

func containsID(ids []int64, want int64) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestPresenceRegisterOverwrites(t *testing.T) {
	p := newPresence()

	h1 := NewClient("c1", 7, "alice")
	h2 := NewClient("c2", 7, "alice")

	p.register(h1)
	if p.lookup(7) != h1 {
		t.Fatal("expected first handle after register")
	}

	p.register(h2)
	if p.lookup(7) != h2 {
		t.Fatal("expected second handle to supersede the first")
	}
	if got := p.online(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("unexpected online set: %v", got)
	}
}

func TestPresenceStaleUnregisterIgnored(t *testing.T) {
	p := newPresence()

	h1 := NewClient("c1", 7, "alice")
	h2 := NewClient("c2", 7, "alice")

	p.register(h1)
	p.register(h2)

	if p.unregister(h1) {
		t.Fatal("stale unregister must be a no-op")
	}
	if p.lookup(7) != h2 {
		t.Fatal("newer handle must survive a stale unregister")
	}

	if !p.unregister(h2) {
		t.Fatal("matching unregister must remove the mapping")
	}
	if p.lookup(7) != nil {
		t.Fatal("lookup after unregister must be empty")
	}
}

func TestPresenceSequenceReflectsLastRegister(t *testing.T) {
	p := newPresence()

	a := NewClient("ca", 1, "a")
	b := NewClient("cb", 2, "b")

	p.register(a)
	p.register(b)
	p.unregister(a)

	online := p.online()
	if containsID(online, 1) {
		t.Fatalf("user 1 should be offline, online=%v", online)
	}
	if !containsID(online, 2) {
		t.Fatalf("user 2 should be online, online=%v", online)
	}
}
