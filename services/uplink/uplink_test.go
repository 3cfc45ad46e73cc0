package uplink

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"rtdnode/bus"
	"rtdnode/errcode"
	"rtdnode/radio"
	"rtdnode/radio/stub"
	"rtdnode/types"
	"rtdnode/x/logx"
)

type rig struct {
	u   *Uplink
	s   *Session
	r   *stub.Radio
	evt *bus.Subscription
	log *bytes.Buffer
}

func newRig(s Session) *rig {
	b := bus.NewBus(32)
	conn := b.NewConnection("test")
	var buf bytes.Buffer
	r := stub.New()
	sess := &s
	return &rig{
		u:   New(sess, r, conn, logx.NewOutput(&buf).New("APP"), Config{}),
		s:   sess,
		r:   r,
		evt: conn.Subscribe(types.TopicEvt),
		log: &buf,
	}
}

func (g *rig) lines(t *testing.T) []string {
	t.Helper()
	var out []string
	for {
		select {
		case m := <-g.evt.Channel():
			out = append(out, m.Payload.(string))
		case <-time.After(20 * time.Millisecond):
			return out
		}
	}
}

func expectLines(t *testing.T, g *rig, want ...string) {
	t.Helper()
	got := g.lines(t)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("events = %q, want %q", got, want)
	}
}

// ---- dispatch ----

func TestDispatchJoinedSubmitsWithTwoRetries(t *testing.T) {
	g := newRig(Session{Network: true, Joined: true})
	if err := g.u.Dispatch([]byte{1, 2}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	sends, retries := g.r.Sends()
	if len(sends) != 1 || retries[0] != 2 || !bytes.Equal(sends[0], []byte{1, 2}) {
		t.Fatalf("sends=%v retries=%v", sends, retries)
	}
	if !strings.Contains(g.log.String(), "[APP] Packet enqueued") {
		t.Fatalf("log: %q", g.log.String())
	}
}

func TestDispatchSubmitStatuses(t *testing.T) {
	cases := []struct {
		st   radio.SubmitStatus
		code errcode.Code
		msg  string
	}{
		{radio.Busy, errcode.Busy, "LoRa transceiver is busy"},
		{radio.TooLarge, errcode.TooLarge, "Packet error, too big to send with current DR"},
	}
	for _, tc := range cases {
		g := newRig(Session{Network: true, Joined: true})
		g.r.Status = tc.st
		err := g.u.Dispatch([]byte{0})
		if errcode.Of(err) != tc.code {
			t.Errorf("%v: err=%v", tc.st, err)
		}
		if !strings.Contains(g.log.String(), tc.msg) {
			t.Errorf("%v: log %q", tc.st, g.log.String())
		}
		if g.s.Fails != 0 {
			t.Errorf("%v: submit result touched the failure counter", tc.st)
		}
	}
}

func TestDispatchNotJoinedSkipsSubmit(t *testing.T) {
	g := newRig(Session{Network: true})
	if err := g.u.Dispatch([]byte{1}); err != errcode.NotJoined {
		t.Fatalf("err = %v", err)
	}
	if sends, _ := g.r.Sends(); len(sends) != 0 {
		t.Fatalf("submit called while not joined: %v", sends)
	}
	if !strings.Contains(g.log.String(), "Network not joined, skip sending") {
		t.Fatalf("log: %q", g.log.String())
	}
}

func TestDispatchP2PIgnoresJoinState(t *testing.T) {
	for _, joined := range []bool{false, true} {
		g := newRig(Session{Network: false, Joined: joined})
		if err := g.u.Dispatch([]byte{9}); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
		if p := g.r.P2P(); len(p) != 1 {
			t.Fatalf("joined=%v: p2p sends %v", joined, p)
		}
		if sends, _ := g.r.Sends(); len(sends) != 0 {
			t.Fatal("network path used in P2P mode")
		}
	}
}

// ---- join ----

func TestJoinFinished(t *testing.T) {
	g := newRig(Session{Network: true})
	g.u.Handle(radio.Event{Kind: radio.JoinFinished, OK: true})
	if !g.s.Joined || g.r.Joins() != 0 {
		t.Fatalf("joined=%v joins=%d", g.s.Joined, g.r.Joins())
	}
	expectLines(t, g, EvtJoined)
}

func TestJoinFailureRejoinsExactlyOnce(t *testing.T) {
	g := newRig(Session{Network: true})
	for i := 1; i <= 3; i++ {
		if g.u.Handle(radio.Event{Kind: radio.JoinFinished, OK: false}) {
			t.Fatal("join failure must not escalate")
		}
		if g.r.Joins() != i {
			t.Fatalf("after %d failures: joins=%d", i, g.r.Joins())
		}
	}
	if g.s.Joined || g.s.Fails != 0 {
		t.Fatalf("session changed: %+v", *g.s)
	}
	expectLines(t, g, EvtJoinFailed, EvtJoinFailed, EvtJoinFailed)
}

// ---- tx ----

func TestTxUnconfirmedIgnoresResult(t *testing.T) {
	g := newRig(Session{Network: true, Joined: true})
	g.u.Handle(radio.Event{Kind: radio.TxFinished, OK: false})
	g.u.Handle(radio.Event{Kind: radio.TxFinished, OK: true})
	if g.s.Fails != 0 {
		t.Fatalf("fails = %d", g.s.Fails)
	}
	expectLines(t, g, EvtTxDone, EvtTxDone)
}

func TestTxConfirmed(t *testing.T) {
	g := newRig(Session{Network: true, Joined: true, Confirmed: true})
	g.u.Handle(radio.Event{Kind: radio.TxFinished, OK: true})
	g.u.Handle(radio.Event{Kind: radio.TxFinished, OK: false})
	if g.s.Fails != 1 {
		t.Fatalf("fails = %d", g.s.Fails)
	}
	expectLines(t, g, EvtConfirmedOK, EvtConfirmedFail)
}

func TestTxP2P(t *testing.T) {
	g := newRig(Session{})
	if g.u.Handle(radio.Event{Kind: radio.TxFinished, OK: false}) {
		t.Fatal("P2P must not escalate")
	}
	if g.s.Fails != 0 {
		t.Fatalf("fails = %d", g.s.Fails)
	}
	expectLines(t, g, EvtP2PDone)
}

func TestRestartAtExactlyTen(t *testing.T) {
	g := newRig(Session{Network: true, Joined: true, Confirmed: true})
	for i := 1; i <= 9; i++ {
		if g.u.OnTxFinished(false) {
			t.Fatalf("restart requested at %d", i)
		}
		if g.s.Fails != i {
			t.Fatalf("fails = %d, want %d", g.s.Fails, i)
		}
	}
	// Successes in between do not reset the counter.
	if g.u.OnTxFinished(true) || g.s.Fails != 9 {
		t.Fatalf("ack changed counter: %d", g.s.Fails)
	}
	if !g.u.OnTxFinished(false) {
		t.Fatal("no restart at 10")
	}
}

// ---- receive ----

func TestReceiveNetwork(t *testing.T) {
	g := newRig(Session{Network: true, Joined: true})
	g.u.Handle(radio.Event{Kind: radio.Received, RSSI: -87, SNR: 9, Port: 2, Data: []byte{0x0A, 0xFF}})
	expectLines(t, g, "+EVT:RX_1:-87:9:UNICAST:2:0AFF")

	log := g.log.String()
	for _, want := range []string{"Received package over LoRa", "RSSI -87 SNR 9", "0A FF "} {
		if !strings.Contains(log, want) {
			t.Fatalf("log missing %q: %q", want, log)
		}
	}
}

func TestReceiveP2P(t *testing.T) {
	g := newRig(Session{})
	g.u.Handle(radio.Event{Kind: radio.Received, RSSI: -120, SNR: -5, Data: []byte{0xde, 0xad}})
	expectLines(t, g, "+EVT:RXP2P:-120:-5:DEAD")
}

func TestRxLineHexLength(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i)
	}
	line := string(RxLine(false, radio.Event{Data: data}))
	hex := line[strings.LastIndexByte(line, ':')+1:]
	if len(hex) != 2*len(data) || strings.ToUpper(hex) != hex {
		t.Fatalf("hex len=%d", len(hex))
	}
	if hex[:6] != "000102" {
		t.Fatalf("byte order: %s", hex[:6])
	}
}

func TestNilConnection(t *testing.T) {
	s := &Session{Network: true}
	u := New(s, stub.New(), nil, nil, Config{})
	u.OnJoinFinished(true)
	if !s.Joined {
		t.Fatal("join state not recorded")
	}
}

func TestJoinP2PUnsupported(t *testing.T) {
	g := newRig(Session{})
	if err := g.u.Join(); err != errcode.Unsupported {
		t.Fatalf("err = %v", err)
	}
	if g.r.Joins() != 0 {
		t.Fatal("join issued in P2P mode")
	}
}
