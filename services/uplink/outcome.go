package uplink

import (
	"rtdnode/radio"
	"rtdnode/x/conv"
)

// Event lines reproduced verbatim for host tools.
const (
	EvtJoined          = "+EVT:JOINED"
	EvtJoinFailed      = "+EVT:JOIN_FAILED_TX_TIMEOUT"
	EvtTxDone          = "+EVT:TX_DONE"
	EvtConfirmedOK     = "+EVT:SEND_CONFIRMED_OK"
	EvtConfirmedFail   = "+EVT:SEND_CONFIRMED_FAILED"
	EvtP2PDone         = "+EVT:TXP2P_DONE"
	evtRxUnicastPrefix = "+EVT:RX_1:"
	evtRxP2PPrefix     = "+EVT:RXP2P:"
)

// Handle applies one radio event to the session. It reports true when the
// failure counter has reached the restart threshold on this event.
func (u *Uplink) Handle(ev radio.Event) (restart bool) {
	switch ev.Kind {
	case radio.JoinFinished:
		u.OnJoinFinished(ev.OK)
	case radio.TxFinished:
		return u.OnTxFinished(ev.OK)
	case radio.Received:
		u.OnReceive(ev)
	default:
		u.log.Printf("unknown radio event %d", uint8(ev.Kind))
	}
	return false
}

// OnJoinFinished records the join result. A failed join is re-requested
// exactly once per failure, with no backoff.
func (u *Uplink) OnJoinFinished(ok bool) {
	u.s.Joined = ok
	if ok {
		u.log.Printf("Successfully joined network")
		u.emit(EvtJoined)
		return
	}
	u.log.Printf("Join network failed")
	u.emit(EvtJoinFailed)
	if err := u.r.Join(); err != nil {
		u.log.Printf("rejoin request failed: %v", err)
	}
}

// OnTxFinished reports a completed uplink. Only a confirmed network uplink
// with ok=false counts as a failure; it returns true when that failure
// brings the counter to exactly the restart threshold.
func (u *Uplink) OnTxFinished(ok bool) bool {
	if !u.s.Network {
		u.log.Printf("P2P TX finished")
		u.emit(EvtP2PDone)
		return false
	}

	if ok {
		u.log.Printf("LoRa TX cycle finished ACK")
	} else {
		u.log.Printf("LoRa TX cycle failed NAK")
	}
	if !u.s.Confirmed {
		u.emit(EvtTxDone)
		return false
	}
	if ok {
		u.emit(EvtConfirmedOK)
		return false
	}
	u.emit(EvtConfirmedFail)
	u.s.Fails++
	return u.s.Fails == u.cfg.FailRestart
}

// OnReceive logs signal quality and a hex dump, then emits the RX line.
// The payload itself is not interpreted.
func (u *Uplink) OnReceive(ev radio.Event) {
	u.log.Printf("Received package over LoRa")
	u.log.Printf("RSSI %d SNR %d", ev.RSSI, ev.SNR)
	u.log.Printf("%s", conv.AppendHexSpaced(nil, ev.Data))
	u.emit(string(RxLine(u.s.Network, ev)))
}

// RxLine builds "+EVT:RX_1:<rssi>:<snr>:UNICAST:<port>:<HEX>" for network
// mode or "+EVT:RXP2P:<rssi>:<snr>:<HEX>" for P2P.
func RxLine(network bool, ev radio.Event) []byte {
	b := make([]byte, 0, 40+2*len(ev.Data))
	if network {
		b = append(b, evtRxUnicastPrefix...)
	} else {
		b = append(b, evtRxP2PPrefix...)
	}
	b = conv.AppendInt(b, int64(ev.RSSI))
	b = append(b, ':')
	b = conv.AppendInt(b, int64(ev.SNR))
	b = append(b, ':')
	if network {
		b = append(b, "UNICAST:"...)
		b = conv.AppendInt(b, int64(ev.Port))
		b = append(b, ':')
	}
	return conv.AppendHex(b, ev.Data)
}
