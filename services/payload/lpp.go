// Package payload builds the uplink frame in Cayenne LPP layout:
// [channel][type][value...] repeated, big-endian values.
package payload

import (
	"rtdnode/errcode"
	"rtdnode/x/mathx"
)

// MaxSize is the largest frame the encoder will build.
const MaxSize = 255

// LPP type tags and value widths.
const (
	TypeTemperature byte = 103 // 0.1 °C signed, 2 bytes
	TypeVoltage     byte = 116 // 0.01 V unsigned, 2 bytes

	sizeTemperature = 2
	sizeVoltage     = 2
)

// Default channels of the node.
const (
	ChannelBattery     byte = 1
	ChannelTemperature byte = 2
)

// ErrFull is returned when an entry would push the frame past its limit.
var ErrFull = errcode.TooLarge

// Encoder accumulates entries for one cycle. Not safe for concurrent use.
type Encoder struct {
	buf [MaxSize]byte
	n   int
	max int
}

// NewEncoder returns an encoder capped at size bytes (clamped to MaxSize).
func NewEncoder(size int) *Encoder {
	return &Encoder{max: mathx.Clamp(size, 0, MaxSize)}
}

// Reset empties the frame.
func (e *Encoder) Reset() { e.n = 0 }

// AddVoltage appends a voltage entry in volts.
func (e *Encoder) AddVoltage(ch byte, volts float32) error {
	v := mathx.Clamp(mathx.RoundToInt(volts*100), 0, 0xFFFF)
	return e.add(ch, TypeVoltage, uint16(v), sizeVoltage)
}

// AddTemperature appends a temperature entry in °C.
func (e *Encoder) AddTemperature(ch byte, celsius float32) error {
	v := mathx.Clamp(mathx.RoundToInt(celsius*10), -32768, 32767)
	return e.add(ch, TypeTemperature, uint16(int16(v)), sizeTemperature)
}

func (e *Encoder) add(ch, typ byte, v uint16, size int) error {
	if e.n+2+size > e.max {
		return ErrFull
	}
	e.buf[e.n] = ch
	e.buf[e.n+1] = typ
	e.buf[e.n+2] = byte(v >> 8)
	e.buf[e.n+3] = byte(v)
	e.n += 2 + size
	return nil
}

// Bytes returns the encoded frame. The slice aliases the encoder and is
// only valid until the next Reset or Add.
func (e *Encoder) Bytes() []byte { return e.buf[:e.n] }

// Len returns the encoded size in bytes.
func (e *Encoder) Len() int { return e.n }
