package bus

import (
	"sort"
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("at", "evt"))
	conn.Publish(conn.NewMessage(T("at", "evt"), "+EVT:JOINED", false))

	expectOneOf(t, sub, "+EVT:JOINED")
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(conn.NewMessage(T("node", "state"), "persist", true))
	sub := conn.Subscribe(T("node", "state"))

	expectOneOf(t, sub, "persist")
}

func TestWildcards(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sPlus := c.Subscribe(T("node", "+"))
	sHash := c.Subscribe(T("#"))
	sExact := c.Subscribe(T("node", "fault"))

	c.Publish(b.NewMessage(T("node", "fault"), "f", false))
	expectOneOf(t, sPlus, "f")
	expectOneOf(t, sHash, "f")
	expectOneOf(t, sExact, "f")

	c.Publish(b.NewMessage(T("node", "fault", "x"), "deep", false))
	expectOneOf(t, sHash, "deep")
	expectNoMessage(t, sPlus)
	expectNoMessage(t, sExact)
}

func TestRetainedClearAndWildcardReplay(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("node", "state"), "s", true))
	c.Publish(b.NewMessage(T("node", "reading"), "r", true))
	c.Publish(b.NewMessage(T("node", "reading"), nil, true))

	s := c.Subscribe(T("node", "#"))
	got := drainPayloads(t, s, 1)
	sort.Strings(got)
	if got[0] != "s" {
		t.Fatalf("got %v", got)
	}
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("a"))

	for _, p := range []string{"1", "2", "3"} {
		c.Publish(b.NewMessage(T("a"), p, false))
	}
	got := drainPayloads(t, s, 2)
	if got[0] != "2" || got[1] != "3" {
		t.Fatalf("got %v", got)
	}
}

func TestSubscribeQueueHoldsBurst(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.SubscribeQueue(T("at", "evt"), 8)

	want := []string{"1", "2", "3", "4", "5", "6", "7", "8"}
	for _, p := range want {
		c.Publish(b.NewMessage(T("at", "evt"), p, false))
	}
	got := drainPayloads(t, s, len(want))
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v", got)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("a"))
	c.Unsubscribe(s)
	c.Unsubscribe(s)
	if _, ok := <-s.Channel(); ok {
		t.Fatal("channel should be closed")
	}
	c.Publish(b.NewMessage(T("a"), "x", false)) // must not panic
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		s, ok := got.Payload.(string)
		if !ok || s != want {
			t.Fatalf("unexpected payload: %v (want %q)", got.Payload, want)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(30 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.Now().Add(300 * time.Millisecond)
	for len(out) < n && time.Now().Before(deadline) {
		select {
		case m := <-sub.Channel():
			out = append(out, m.Payload.(string))
		case <-time.After(10 * time.Millisecond):
		}
	}
	if len(out) != n {
		t.Fatalf("expected %d messages, got %d (%v)", n, len(out), out)
	}
	return out
}
