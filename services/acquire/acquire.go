// Package acquire runs one powered measurement of the RTD sensor: bring the
// SPI bus up, re-initialise the converter, wait for DRDY with a hard bound,
// read, then take the bus down and park its lines pulled low.
package acquire

import (
	"time"

	"tinygo.org/x/drivers"

	"rtdnode/drivers/max31865"
	"rtdnode/services/faults"
	"rtdnode/services/hal/halcore"
	"rtdnode/x/logx"
	"rtdnode/x/timex"
)

// Thresholds are the converter's fault window in °C.
type Thresholds struct {
	Low, High float32
}

// Config centralises timings.
type Config struct {
	Sensor       max31865.Config
	ReadyTimeout time.Duration // default 5 s
	PollInterval time.Duration // default 100 ms
}

// Sensor is the driver surface used per cycle.
type Sensor interface {
	Configure(max31865.Config) error
	SetLowFaultThreshold(celsius float32) error
	SetHighFaultThreshold(celsius float32) error
	ReadTemperatureAndStatus() (celsius, ohms float32, status uint8, err error)
}

// SensorFactory binds a driver to a freshly started bus.
type SensorFactory func(bus drivers.SPI, cs max31865.Pin) Sensor

func defaultFactory(bus drivers.SPI, cs max31865.Pin) Sensor { return max31865.New(bus, cs) }

type Acquirer struct {
	cfg   Config
	spi   halcore.SPIPort
	cs    halcore.GPIOPin
	ready halcore.GPIOPin
	clock timex.Clock
	log   *logx.Logger

	// NewSensor may be replaced before first use.
	NewSensor SensorFactory

	timeouts uint32
	detected bool
}

func New(cfg Config, spi halcore.SPIPort, cs, ready halcore.GPIOPin, clock timex.Clock, log *logx.Logger) *Acquirer {
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 5 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	if clock == nil {
		clock = timex.System
	}
	if log == nil {
		log = logx.Discard
	}
	return &Acquirer{
		cfg:       cfg,
		spi:       spi,
		cs:        cs,
		ready:     ready,
		clock:     clock,
		log:       log,
		NewSensor: defaultFactory,
	}
}

// Acquire performs one measurement. ok is false when the bus could not be
// started, the converter did not answer, or the read failed. The bus is
// always down and parked on return.
func (a *Acquirer) Acquire(th Thresholds) (r faults.Reading, ok bool) {
	bus, err := a.spi.Begin()
	if err != nil {
		a.log.Printf("SPI begin failed: %v", err)
		a.park()
		return r, false
	}
	defer a.park()

	var cs max31865.Pin
	if a.cs != nil {
		_ = a.cs.ConfigureOutput(true)
		cs = a.cs
	}
	dev := a.NewSensor(bus, cs)
	if err := dev.Configure(a.cfg.Sensor); err != nil {
		a.detected = false
		a.log.Printf("MAX31865 is not connected, Please check your connections")
		return r, false
	}
	a.detected = true
	_ = dev.SetLowFaultThreshold(th.Low)
	_ = dev.SetHighFaultThreshold(th.High)

	if a.ready != nil {
		_ = a.ready.ConfigureInput(halcore.PullNone)
		a.log.Printf("DRDY = %d", b2i(a.ready.Get()))
		if !a.WaitReady() {
			a.timeouts++
			a.log.Printf("DRDY timeout")
		}
	}

	r.Celsius, r.Ohms, r.Status, err = dev.ReadTemperatureAndStatus()
	if err != nil {
		a.log.Printf("MAX31865 read failed: %v", err)
		return r, false
	}
	a.log.Printf("PT100 temperature: %.2f res: %.2f stat: %d", r.Celsius, r.Ohms, r.Status)
	return r, true
}

// WaitReady polls DRDY (active low) until it asserts or ReadyTimeout has
// elapsed. It never sleeps past the timeout.
func (a *Acquirer) WaitReady() bool {
	deadline := a.clock.Now().Add(a.cfg.ReadyTimeout)
	for a.ready.Get() {
		now := a.clock.Now()
		if !now.Before(deadline) {
			return false
		}
		step := a.cfg.PollInterval
		if rem := deadline.Sub(now); rem < step {
			step = rem
		}
		a.clock.Sleep(step)
	}
	return true
}

// Detected reports whether the converter answered on the last Acquire.
func (a *Acquirer) Detected() bool { return a.detected }

// Timeouts returns how many DRDY waits ran out.
func (a *Acquirer) Timeouts() uint32 { return a.timeouts }

// park ends the bus and pulls every bus line low to stop leakage through
// the unpowered converter.
func (a *Acquirer) park() {
	_ = a.spi.End()
	for _, p := range a.spi.Pins() {
		_ = p.ConfigureInput(halcore.PullDown)
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
