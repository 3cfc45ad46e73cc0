package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"rtdnode/bus"
	"rtdnode/types"
)

func nextState(t *testing.T, sub *bus.Subscription, timeout time.Duration) types.LinkState {
	t.Helper()
	select {
	case m := <-sub.Channel():
		st, ok := m.Payload.(types.LinkState)
		if !ok {
			t.Fatalf("payload %T", m.Payload)
		}
		return st
	case <-time.After(timeout):
		t.Fatal("timeout waiting for telemetry/state")
		return types.LinkState{}
	}
}

func nextRecord(t *testing.T, rd *framedReader) Record {
	t.Helper()
	for {
		f, err := rd.ReadFrame()
		if err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if f.Type != frameRecord {
			continue
		}
		var r Record
		if err := json.Unmarshal(f.Payload, &r); err != nil {
			t.Fatalf("json: %v", err)
		}
		return r
	}
}

func TestForwardsEventsAndNodeTopics(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("telemetry")
	stateSub := conn.Subscribe(types.TopicTelemetryState)

	var remote net.Conn
	dialed := make(chan struct{})
	s := New(conn, func(ctx context.Context) (io.ReadWriteCloser, error) {
		lc, rc := net.Pipe()
		remote = rc
		close(dialed)
		return lc, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	<-dialed
	if st := nextState(t, stateSub, time.Second); st.Level != "up" {
		t.Fatalf("state %+v", st)
	}

	pub := b.NewConnection("node")
	pub.Publish(pub.NewMessage(types.TopicEvt, "+EVT:JOINED", false))
	rd := newFramedReader(remote)
	r := nextRecord(t, rd)
	if r.Topic != "at/evt" || r.Payload != "+EVT:JOINED" {
		t.Fatalf("record %+v", r)
	}

	pub.Publish(pub.NewMessage(types.TopicFault, types.FaultEvent{Bit: 0x80, Label: "RTD High Threshold"}, false))
	r = nextRecord(t, rd)
	if r.Topic != "node/fault" {
		t.Fatalf("record %+v", r)
	}
	m, ok := r.Payload.(map[string]any)
	if !ok || m["label"] != "RTD High Threshold" {
		t.Fatalf("payload %#v", r.Payload)
	}
}

func TestLinkLossRedials(t *testing.T) {
	b := bus.NewBus(16)
	conn := b.NewConnection("telemetry")
	stateSub := conn.Subscribe(types.TopicTelemetryState)

	remotes := make(chan net.Conn, 4)
	s := New(conn, func(ctx context.Context) (io.ReadWriteCloser, error) {
		lc, rc := net.Pipe()
		remotes <- rc
		return lc, nil
	})
	s.minBackoff, s.maxBackoff = time.Millisecond, 2*time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	first := <-remotes
	nextState(t, stateSub, time.Second)
	first.Close()

	if st := nextState(t, stateSub, time.Second); st.Status != "link_lost_retrying" {
		t.Fatalf("state %+v", st)
	}
	select {
	case <-remotes:
	case <-time.After(time.Second):
		t.Fatal("no redial")
	}
}

func TestDialFailureIsDegraded(t *testing.T) {
	b := bus.NewBus(8)
	conn := b.NewConnection("telemetry")
	stateSub := conn.Subscribe(types.TopicTelemetryState)

	s := New(conn, func(ctx context.Context) (io.ReadWriteCloser, error) {
		return nil, errors.New("refused")
	})
	s.minBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	st := nextState(t, stateSub, time.Second)
	if st.Level != "degraded" || st.Status != "dial_failed_retrying" || st.Error == "" {
		t.Fatalf("state %+v", st)
	}
}

func TestNoDialler(t *testing.T) {
	b := bus.NewBus(4)
	conn := b.NewConnection("telemetry")
	New(conn, nil).Run(context.Background())

	sub := conn.Subscribe(types.TopicTelemetryState)
	if st := nextState(t, sub, time.Second); st.Level != "error" {
		t.Fatalf("state %+v", st)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		_ = newFramedWriter(pw).WriteFrame(Frame{Type: frameRecord, Payload: []byte("abc")})
	}()
	f, err := newFramedReader(pr).ReadFrame()
	if err != nil || f.Type != frameRecord || string(f.Payload) != "abc" {
		t.Fatalf("frame %+v err %v", f, err)
	}
	if err := newFramedWriter(io.Discard).WriteFrame(Frame{Payload: make([]byte, 0x10000)}); err == nil {
		t.Fatal("oversize frame accepted")
	}
}
