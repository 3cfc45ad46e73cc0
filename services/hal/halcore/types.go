// Package halcore holds the hardware abstractions the node is written
// against. Platform packages implement them; tests use fakes.
package halcore

import "tinygo.org/x/drivers"

// ---- GPIO abstractions ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOPin interface {
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// ---- SPI ----

// SPIPort owns one SPI peripheral. Begin powers it up and returns a
// transport compatible with tinygo.org/x/drivers; End releases the
// peripheral. Pins lists MOSI, MISO, SCK and CS so the caller can park them
// once the bus is down.
type SPIPort interface {
	Begin() (drivers.SPI, error)
	End() error
	Pins() []GPIOPin
}

// ---- Power & board services ----

// Battery returns one battery voltage sample in millivolts.
type Battery interface {
	ReadMillivolts() (float32, error)
}

// Restarter performs a full device restart. On hardware it does not return.
type Restarter interface {
	Restart(reason string)
}

// Board bundles what the node needs from the platform.
type Board struct {
	SPI       SPIPort
	ChipSel   GPIOPin
	Rail      GPIOPin // sensor power rail (WB_IO2 on the reference board)
	DataReady GPIOPin // MAX31865 DRDY, active low
	Battery   Battery
	Restarter Restarter
}
