// Package console carries AT command traffic: a bridge from side-channel
// bytes into a line parser, the parser itself, and a printer for +EVT lines.
package console

import "rtdnode/x/logx"

// ByteParser consumes command input one byte at a time.
type ByteParser interface {
	Input(b byte)
}

// Bridge forwards side-channel bytes (the BLE UART) to an optional parser.
type Bridge struct {
	target ByteParser
	log    *logx.Logger
}

// NewBridge returns a bridge. A nil target makes Forward a no-op.
func NewBridge(target ByteParser, log *logx.Logger) *Bridge {
	if log == nil {
		log = logx.Discard
	}
	return &Bridge{target: target, log: log}
}

// Forward feeds data to the parser followed by a single '\n'. It reports
// whether a parser was present.
func (b *Bridge) Forward(data []byte) bool {
	if b.target == nil {
		return false
	}
	b.log.Printf("RECEIVED BLE")
	for _, c := range data {
		b.target.Input(c)
	}
	b.target.Input('\n')
	return true
}
