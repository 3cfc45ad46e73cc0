//go:build rp2040 || rp2350

package platform

import (
	"context"
	"errors"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"rtdnode/services/config"
	"rtdnode/services/hal/halcore"
)

// ---- GPIO ----

type rp2GPIO struct {
	p machine.Pin
}

func pin(n int) *rp2GPIO { return &rp2GPIO{p: machine.Pin(n)} }

func (r *rp2GPIO) Number() int { return int(r.p) }

func (r *rp2GPIO) ConfigureInput(pull halcore.Pull) error {
	var mode machine.PinMode
	switch pull {
	case halcore.PullUp:
		mode = machine.PinInputPullup
	case halcore.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2GPIO) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2GPIO) Set(b bool) { r.p.Set(b) }
func (r *rp2GPIO) Get() bool  { return r.p.Get() }

// ---- SPI ----

// rp2SPI drives SPI0. Configure re-muxes the pins every Begin, which undoes
// the pull-down parking done after End.
type rp2SPI struct {
	hw   *machine.SPI
	hz   uint32
	pins Pins
}

func (s *rp2SPI) Begin() (drivers.SPI, error) {
	err := s.hw.Configure(machine.SPIConfig{
		Frequency: s.hz,
		SCK:       machine.Pin(s.pins.SCK),
		SDO:       machine.Pin(s.pins.MOSI),
		SDI:       machine.Pin(s.pins.MISO),
		Mode:      1,
	})
	if err != nil {
		return nil, err
	}
	return s.hw, nil
}

func (s *rp2SPI) End() error { return nil }

func (s *rp2SPI) Pins() []halcore.GPIOPin {
	return []halcore.GPIOPin{pin(s.pins.MOSI), pin(s.pins.MISO), pin(s.pins.SCK), pin(s.pins.CS)}
}

// ---- battery & reset ----

// VSYS is divided by three onto ADC3 on Pico boards.
type rp2Battery struct{ adc machine.ADC }

func (b *rp2Battery) ReadMillivolts() (float32, error) {
	raw := b.adc.Get()
	return float32(raw) * 3300 * 3 / 65535, nil
}

type rp2Restarter struct{}

func (rp2Restarter) Restart(string) { machine.CPUReset() }

// NewBoard builds the board from the platform section of the config.
func NewBoard(pc config.PlatformConfig) (halcore.Board, error) {
	pins, ok := PinsFrom(pc.SPIPins)
	if !ok {
		pins = Pins{MOSI: 19, MISO: 16, SCK: 18, CS: 17}
	}
	machine.InitADC()
	adc := machine.ADC{Pin: machine.ADC3}
	adc.Configure(machine.ADCConfig{})

	return halcore.Board{
		SPI:       &rp2SPI{hw: machine.SPI0, hz: uint32(pc.SPIHz), pins: pins},
		ChipSel:   pin(pins.CS),
		Rail:      pin(pc.RailPin),
		DataReady: pin(pc.ReadyPin),
		Battery:   &rp2Battery{adc: adc},
		Restarter: rp2Restarter{},
	}, nil
}

// ---- console ----

const consoleIdle = 100 * time.Millisecond

// Console is the AT console on UART1 (TX GP4, RX GP5).
type Console struct{ u *uartx.UART }

func OpenConsole(baud int) *Console {
	hw := uartx.UART1
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: uint32(baud),
		TX:       machine.GP4,
		RX:       machine.GP5,
	})
	return &Console{u: hw}
}

func (c *Console) Write(b []byte) (int, error) { return c.u.Write(b) }

// Recv waits at most idle for bytes. A quiet line returns (0, nil) so the
// reader can complete a command sent without a terminator.
func (c *Console) Recv(ctx context.Context, buf []byte) (int, error) {
	rctx, cancel := context.WithTimeout(ctx, consoleIdle)
	n, err := c.u.RecvSomeContext(rctx, buf)
	cancel()
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return n, nil
	}
	return n, err
}

// ---- modem link ----

// Modem is the AT modem link on UART0 (TX GP0, RX GP1).
type Modem struct{ u *uartx.UART }

func OpenModem(baud int) *Modem {
	hw := uartx.UART0
	_ = hw.Configure(uartx.UARTConfig{
		BaudRate: uint32(baud),
		TX:       machine.GP0,
		RX:       machine.GP1,
	})
	return &Modem{u: hw}
}

func (m *Modem) Write(b []byte) (int, error) { return m.u.Write(b) }

// Read blocks until at least one byte is available.
func (m *Modem) Read(b []byte) (int, error) {
	return m.u.RecvSomeContext(context.Background(), b)
}
