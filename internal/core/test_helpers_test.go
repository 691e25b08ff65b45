package core

import (
	"testing"
	"time"
)

// mustEvent drains the channel until an event of the wanted kind arrives,
// discarding others (presence snapshots in particular).
func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drainKind empties the channel and counts events of the given kind. Call
// only after a dispatch barrier so all pending deliveries have landed.
func drainKind(t *testing.T, ch <-chan *Event, kind EventKind) int {
	t.Helper()

	count := 0
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				count++
			}
		default:
			return count
		}
	}
}

// barrier waits until every previously enqueued command has been dispatched.
// Commands are processed in FIFO order, so a completed query implies all
// earlier commands completed too.
func barrier(h *Hub) {
	h.Online()
}
