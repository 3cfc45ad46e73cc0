package node

import "rtdnode/radio"

// Kind tags a queued event.
type Kind uint8

const (
	EvTimer   Kind = iota + 1 // send interval elapsed
	EvCommand                 // side-channel bytes for the command parser
	EvRadio                   // completion or receive from the radio stack
)

func (k Kind) String() string {
	switch k {
	case EvTimer:
		return "timer"
	case EvCommand:
		return "command"
	case EvRadio:
		return "radio"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the loop. Data is set for EvCommand,
// Radio for EvRadio.
type Event struct {
	Kind  Kind
	Data  []byte
	Radio radio.Event
}
