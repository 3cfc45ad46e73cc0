package uplink

import (
	"rtdnode/bus"
	"rtdnode/errcode"
	"rtdnode/radio"
	"rtdnode/types"
	"rtdnode/x/logx"
)

// Uplink pairs the dispatcher with the outcome handler.
type Uplink struct {
	s    *Session
	r    radio.Radio
	conn *bus.Connection
	log  *logx.Logger
	cfg  Config
}

// New binds s to r. conn may be nil, in which case no +EVT lines are
// published.
func New(s *Session, r radio.Radio, conn *bus.Connection, log *logx.Logger, cfg Config) *Uplink {
	cfg.normalize()
	if log == nil {
		log = logx.Discard
	}
	return &Uplink{s: s, r: r, conn: conn, log: log, cfg: cfg}
}

func (u *Uplink) Session() *Session { return u.s }

// Dispatch submits payload on the active path. In network mode the result
// is nil, errcode.Busy, errcode.TooLarge or errcode.NotJoined; none is
// fatal, the delivery outcome arrives later as a TxFinished event.
func (u *Uplink) Dispatch(payload []byte) error {
	if !u.s.Network {
		if err := u.r.SendP2P(payload); err != nil {
			u.log.Printf("P2P send error: %v", err)
			return errcode.Wrap(errcode.Error, "dispatch", err)
		}
		return nil
	}
	if !u.s.Joined {
		u.log.Printf("Network not joined, skip sending")
		return errcode.NotJoined
	}

	st := u.r.Send(payload, u.cfg.ConfirmRetries)
	switch st {
	case radio.Accepted:
		u.log.Printf("Packet enqueued")
	case radio.Busy:
		u.log.Printf("LoRa transceiver is busy")
	case radio.TooLarge:
		u.log.Printf("Packet error, too big to send with current DR")
	}
	return st.Err()
}

// Join requests a network join. P2P mode has nothing to join.
func (u *Uplink) Join() error {
	if !u.s.Network {
		return errcode.Unsupported
	}
	return u.r.Join()
}

func (u *Uplink) emit(line string) {
	if u.conn == nil {
		return
	}
	u.conn.Publish(u.conn.NewMessage(types.TopicEvt, line, false))
}
