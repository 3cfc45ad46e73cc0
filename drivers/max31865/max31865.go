// Package max31865 provides a driver for the MAX31865 RTD-to-digital
// converter on a tinygo.org/x/drivers SPI bus.
//
//	d := max31865.New(spi, cs)
//	err := d.Configure(max31865.Config{Wires: max31865.ThreeWire, RTD: max31865.PT100})
//	t, ohms, status, err := d.ReadTemperatureAndStatus()
//
// The chip runs in automatic conversion mode; callers that need a fresh
// sample wait on the DRDY line before reading.
package max31865

import (
	"errors"
	"math"

	"tinygo.org/x/drivers"
)

// Errors returned by the driver.
var (
	ErrNotDetected = errors.New("max31865: not detected")
	ErrProtocol    = errors.New("max31865: protocol error")
)

type RTDType uint8

const (
	PT100 RTDType = iota
	PT1000
)

// Nominal resistance at 0 °C.
func (t RTDType) R0() float32 {
	if t == PT1000 {
		return 1000
	}
	return 100
}

type WireMode uint8

const (
	TwoWire WireMode = iota
	ThreeWire
	FourWire
)

// Config controls the converter. All fields are optional.
type Config struct {
	Wires WireMode
	RTD   RTDType
	// RefOhms is the reference resistor. Default 430 Ω for PT100 and
	// 4300 Ω for PT1000.
	RefOhms float32
	// Filter60Hz selects the 60 Hz notch; the default is 50 Hz.
	Filter60Hz bool
}

// Pin is the chip-select line (active low). A nil Pin means the SPI
// transport asserts CS itself (Linux spidev).
type Pin interface {
	Set(level bool)
}

// Device wraps an SPI connection to a MAX31865.
type Device struct {
	bus drivers.SPI
	cs  Pin

	cfg  Config
	conf byte
	w    [3]byte
	r    [3]byte
}

// New creates a Device. It does not touch the hardware.
func New(bus drivers.SPI, cs Pin) *Device {
	return &Device{bus: bus, cs: cs}
}

// Configure writes the configuration register, clears latched faults and
// reads the register back. A mismatch means no chip answered.
func (d *Device) Configure(cfg Config) error {
	if cfg.RefOhms <= 0 {
		cfg.RefOhms = 430
		if cfg.RTD == PT1000 {
			cfg.RefOhms = 4300
		}
	}
	d.cfg = cfg

	conf := byte(cfgBias | cfgAutoConv)
	if cfg.Wires == ThreeWire {
		conf |= cfg3Wire
	}
	if !cfg.Filter60Hz {
		conf |= cfgFilter50Hz
	}
	d.conf = conf
	if d.cs != nil {
		d.cs.Set(true)
	}
	if err := d.writeReg(regConfig, conf|cfgFaultClear); err != nil {
		return err
	}
	got, err := d.readReg(regConfig)
	if err != nil {
		return err
	}
	// The fault-cycle and clear bits self-clear, so a live chip reads back
	// exactly conf; a floating MISO gives 0x00 or 0xFF.
	if got != conf {
		return ErrNotDetected
	}
	return nil
}

// SetLowFaultThreshold programs the low RTD threshold in °C.
func (d *Device) SetLowFaultThreshold(celsius float32) error {
	return d.writeThreshold(regLFaultMSB, celsius)
}

// SetHighFaultThreshold programs the high RTD threshold in °C.
func (d *Device) SetHighFaultThreshold(celsius float32) error {
	return d.writeThreshold(regHFaultMSB, celsius)
}

func (d *Device) writeThreshold(msbReg byte, celsius float32) error {
	code := d.codeFromOhms(Resistance(d.cfg.RTD, celsius))
	reg := code << 1
	if err := d.writeReg(msbReg, byte(reg>>8)); err != nil {
		return err
	}
	return d.writeReg(msbReg+1, byte(reg))
}

// ReadTemperatureAndStatus reads the last conversion and the fault
// register. Latched faults are cleared after being read.
func (d *Device) ReadTemperatureAndStatus() (celsius, ohms float32, status uint8, err error) {
	raw, err := d.readWord(regRTDMSB)
	if err != nil {
		return 0, 0, 0, err
	}
	ohms = float32(raw>>1) * d.cfg.RefOhms / codeFullScale
	if ohms > 0 {
		celsius = Temperature(d.cfg.RTD, ohms)
	}
	status, err = d.readReg(regFault)
	if err != nil {
		return celsius, ohms, 0, err
	}
	if status != 0 || raw&1 != 0 {
		err = d.writeReg(regConfig, d.conf|cfgFaultClear)
	}
	return celsius, ohms, status, err
}

func (d *Device) codeFromOhms(ohms float32) uint16 {
	c := math.Round(float64(ohms) * codeFullScale / float64(d.cfg.RefOhms))
	if c < 0 {
		c = 0
	}
	if c > codeFullScale-1 {
		c = codeFullScale - 1
	}
	return uint16(c)
}

// ---- register access ----

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0], d.w[1] = reg&^writeBit, 0
	if err := d.txn(d.w[:2], d.r[:2]); err != nil {
		return 0, err
	}
	return d.r[1], nil
}

func (d *Device) readWord(reg byte) (uint16, error) {
	d.w[0], d.w[1], d.w[2] = reg&^writeBit, 0, 0
	if err := d.txn(d.w[:3], d.r[:3]); err != nil {
		return 0, err
	}
	return uint16(d.r[1])<<8 | uint16(d.r[2]), nil
}

func (d *Device) writeReg(reg, val byte) error {
	d.w[0], d.w[1] = reg|writeBit, val
	return d.txn(d.w[:2], nil)
}

func (d *Device) txn(w, r []byte) error {
	if d.cs != nil {
		d.cs.Set(false)
		defer d.cs.Set(true)
	}
	return d.bus.Tx(w, r)
}
