// Package radio is the node's view of the LoRa stack: synchronous submit
// calls plus asynchronous completion events.
package radio

import "rtdnode/errcode"

// SubmitStatus is the immediate result of a network submit.
type SubmitStatus uint8

const (
	Accepted SubmitStatus = iota // enqueued for transmission
	Busy                         // transceiver busy
	TooLarge                     // payload too large for the current data rate
)

func (s SubmitStatus) String() string {
	switch s {
	case Accepted:
		return "accepted"
	case Busy:
		return "busy"
	case TooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// Err maps a status to an errcode; Accepted maps to nil.
func (s SubmitStatus) Err() error {
	switch s {
	case Accepted:
		return nil
	case Busy:
		return errcode.Busy
	case TooLarge:
		return errcode.TooLarge
	default:
		return errcode.Error
	}
}

// Radio is implemented by the LoRa stack.
type Radio interface {
	// Join starts a network join; the outcome arrives as JoinFinished.
	Join() error
	// Send submits a network uplink with the given confirm retry count.
	Send(data []byte, confirmRetries uint8) SubmitStatus
	// SendP2P transmits on the peer-to-peer path; completion arrives as
	// TxFinished.
	SendP2P(data []byte) error
}

type EventKind uint8

const (
	JoinFinished EventKind = iota + 1
	TxFinished
	Received
)

func (k EventKind) String() string {
	switch k {
	case JoinFinished:
		return "join_finished"
	case TxFinished:
		return "tx_finished"
	case Received:
		return "received"
	default:
		return "unknown"
	}
}

// Event is an asynchronous notification from the stack.
type Event struct {
	Kind EventKind
	// OK is the join result or the confirmed-delivery ack.
	OK bool

	// Received only.
	RSSI int16
	SNR  int8
	Port uint8 // network mode only
	Data []byte
}

// Handler receives events. It must not block.
type Handler func(Event)
