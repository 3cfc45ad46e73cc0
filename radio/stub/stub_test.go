package stub

import (
	"testing"
	"time"

	"rtdnode/radio"
)

func TestRecordsSubmits(t *testing.T) {
	r := New()
	r.Status = radio.Busy
	if st := r.Send([]byte{1, 2}, 2); st != radio.Busy {
		t.Fatalf("status %v", st)
	}
	_ = r.SendP2P([]byte{3})
	sends, retries := r.Sends()
	if len(sends) != 1 || retries[0] != 2 || len(r.P2P()) != 1 {
		t.Fatalf("sends=%v retries=%v p2p=%v", sends, retries, r.P2P())
	}
}

func TestAutoCompletes(t *testing.T) {
	r := New()
	r.Auto, r.Ack = true, false
	got := make(chan radio.Event, 2)
	r.SetHandler(func(ev radio.Event) { got <- ev })

	_ = r.Join()
	r.Send([]byte{1}, 2)

	seen := map[radio.EventKind]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-got:
			seen[ev.Kind] = true
			if ev.Kind == radio.TxFinished && ev.OK {
				t.Fatal("expected NAK")
			}
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
	}
	if !seen[radio.JoinFinished] || !seen[radio.TxFinished] {
		t.Fatalf("seen %v", seen)
	}
}
