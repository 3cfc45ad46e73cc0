//go:build !baremetal

package atmodem

import "go.bug.st/serial"

// Open opens the modem's serial device, 8N1.
func Open(dev string, baud int) (serial.Port, error) {
	return serial.Open(dev, &serial.Mode{BaudRate: baud})
}
