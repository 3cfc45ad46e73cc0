// Package stub is an in-memory Radio for tests and the simulator.
package stub

import (
	"sync"

	"rtdnode/radio"
)

type Radio struct {
	mu      sync.Mutex
	handler radio.Handler

	// Status is returned by Send.
	Status radio.SubmitStatus
	// Auto makes Join and accepted sends complete by themselves.
	Auto   bool
	JoinOK bool
	Ack    bool

	joins   int
	sends   [][]byte
	retries []uint8
	p2p     [][]byte
	modes   [][2]bool
}

func New() *Radio { return &Radio{JoinOK: true, Ack: true} }

// SetHandler installs the event sink.
func (r *Radio) SetHandler(h radio.Handler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

func (r *Radio) Join() error {
	r.mu.Lock()
	r.joins++
	auto, ok := r.Auto, r.JoinOK
	r.mu.Unlock()
	if auto {
		go r.Emit(radio.Event{Kind: radio.JoinFinished, OK: ok})
	}
	return nil
}

func (r *Radio) Send(data []byte, confirmRetries uint8) radio.SubmitStatus {
	r.mu.Lock()
	r.sends = append(r.sends, append([]byte(nil), data...))
	r.retries = append(r.retries, confirmRetries)
	st, auto, ack := r.Status, r.Auto, r.Ack
	r.mu.Unlock()
	if auto && st == radio.Accepted {
		go r.Emit(radio.Event{Kind: radio.TxFinished, OK: ack})
	}
	return st
}

func (r *Radio) SendP2P(data []byte) error {
	r.mu.Lock()
	r.p2p = append(r.p2p, append([]byte(nil), data...))
	auto := r.Auto
	r.mu.Unlock()
	if auto {
		go r.Emit(radio.Event{Kind: radio.TxFinished, OK: true})
	}
	return nil
}

// SetMode records a work-mode change.
func (r *Radio) SetMode(network, confirmed bool) error {
	r.mu.Lock()
	r.modes = append(r.modes, [2]bool{network, confirmed})
	r.mu.Unlock()
	return nil
}

// Modes returns the recorded (network, confirmed) changes.
func (r *Radio) Modes() [][2]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][2]bool(nil), r.modes...)
}

// Emit delivers ev to the handler, as the stack would.
func (r *Radio) Emit(ev radio.Event) {
	r.mu.Lock()
	h := r.handler
	r.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (r *Radio) Joins() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joins
}

// Sends returns copies of the network submits and their retry counts.
func (r *Radio) Sends() ([][]byte, []uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.sends...), append([]uint8(nil), r.retries...)
}

func (r *Radio) P2P() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.p2p...)
}
