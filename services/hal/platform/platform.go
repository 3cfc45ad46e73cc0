// Package platform builds a halcore.Board for the target the binary is
// compiled for: TinyGo rp2 boards or a Linux host with periph.io.
package platform

import "rtdnode/services/hal/halcore"

// Pins lists SPI lines in the order the config uses: MOSI, MISO, SCK, CS.
type Pins struct {
	MOSI, MISO, SCK, CS int
}

// PinsFrom converts a config spi_pins list; ok is false unless it has four
// entries.
func PinsFrom(list []int) (p Pins, ok bool) {
	if len(list) != 4 {
		return p, false
	}
	return Pins{MOSI: list[0], MISO: list[1], SCK: list[2], CS: list[3]}, true
}

// nopPin stands in for a line the platform does not expose, such as a CS
// driven by the kernel.
type nopPin struct{ n int }

func (p nopPin) ConfigureInput(halcore.Pull) error { return nil }
func (p nopPin) ConfigureOutput(bool) error        { return nil }
func (p nopPin) Set(bool)                          {}
func (p nopPin) Get() bool                         { return false }
func (p nopPin) Number() int                       { return p.n }
