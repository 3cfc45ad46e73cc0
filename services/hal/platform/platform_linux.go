//go:build linux && !(rp2040 || rp2350)

package platform

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"rtdnode/services/config"
	"rtdnode/services/hal/halcore"
)

var ErrNoPin = errors.New("platform: gpio not found")

// ---- GPIO ----

type linuxGPIO struct {
	p gpio.PinIO
}

func gpioByNumber(n int) (*linuxGPIO, error) {
	p := gpioreg.ByName("GPIO" + strconv.Itoa(n))
	if p == nil {
		return nil, ErrNoPin
	}
	return &linuxGPIO{p: p}, nil
}

func (l *linuxGPIO) Number() int { return l.p.Number() }

func (l *linuxGPIO) ConfigureInput(pull halcore.Pull) error {
	pp := gpio.Float
	switch pull {
	case halcore.PullUp:
		pp = gpio.PullUp
	case halcore.PullDown:
		pp = gpio.PullDown
	}
	return l.p.In(pp, gpio.NoEdge)
}

func (l *linuxGPIO) ConfigureOutput(initial bool) error { return l.p.Out(gpio.Level(initial)) }
func (l *linuxGPIO) Set(b bool)                         { _ = l.p.Out(gpio.Level(b)) }
func (l *linuxGPIO) Get() bool                          { return l.p.Read() == gpio.High }

// ---- SPI ----

// linuxSPI opens spidev for each cycle. Chip select is left to the kernel.
type linuxSPI struct {
	dev  string
	hz   int
	mu   sync.Mutex
	port spi.PortCloser
	pins []halcore.GPIOPin
}

func (s *linuxSPI) Begin() (drivers.SPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := spireg.Open(s.dev)
	if err != nil {
		return nil, err
	}
	c, err := p.Connect(physic.Frequency(s.hz)*physic.Hertz, spi.Mode1, 8)
	if err != nil {
		p.Close()
		return nil, err
	}
	s.port = p
	return spiConn{c: c}, nil
}

func (s *linuxSPI) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Pins is empty unless spi_pins is configured: parking spidev lines as GPIO
// leaves them out of their SPI function on most SoCs.
func (s *linuxSPI) Pins() []halcore.GPIOPin { return s.pins }

// spiConn adapts a periph connection to drivers.SPI.
type spiConn struct{ c spi.Conn }

func (s spiConn) Tx(w, r []byte) error {
	if r == nil {
		r = make([]byte, len(w))
	}
	return s.c.Tx(w, r)
}

func (s spiConn) Transfer(b byte) (byte, error) {
	var r [1]byte
	err := s.c.Tx([]byte{b}, r[:])
	return r[0], err
}

// ---- battery ----

// sysfsBattery reads a power_supply voltage_now file (microvolts).
type sysfsBattery struct{ path string }

func (b sysfsBattery) ReadMillivolts() (float32, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		return 0, err
	}
	uv, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, err
	}
	return float32(uv) / 1000, nil
}

// ---- restart ----

// execRestarter replaces the process with a fresh copy of itself.
type execRestarter struct{}

func (execRestarter) Restart(string) {
	if exe, err := os.Executable(); err == nil {
		_ = unix.Exec(exe, os.Args, os.Environ())
	}
	// Exec only returns on failure; leave it to the supervisor.
	os.Exit(1)
}

// NewBoard initialises periph.io and builds the board from the platform
// section of the config.
func NewBoard(pc config.PlatformConfig) (halcore.Board, error) {
	if _, err := host.Init(); err != nil {
		return halcore.Board{}, err
	}
	rail, err := gpioByNumber(pc.RailPin)
	if err != nil {
		return halcore.Board{}, err
	}
	ready, err := gpioByNumber(pc.ReadyPin)
	if err != nil {
		return halcore.Board{}, err
	}
	port := &linuxSPI{dev: pc.SPIDev, hz: pc.SPIHz}
	var cs halcore.GPIOPin = nopPin{n: -1}
	if pins, ok := PinsFrom(pc.SPIPins); ok {
		for _, n := range []int{pins.MOSI, pins.MISO, pins.SCK, pins.CS} {
			p, err := gpioByNumber(n)
			if err != nil {
				return halcore.Board{}, err
			}
			port.pins = append(port.pins, p)
		}
	}
	var batt halcore.Battery
	if pc.BatteryPath != "" {
		batt = sysfsBattery{path: pc.BatteryPath}
	}
	return halcore.Board{
		SPI:       port,
		ChipSel:   cs,
		Rail:      rail,
		DataReady: ready,
		Battery:   batt,
		Restarter: execRestarter{},
	}, nil
}

// ---- console ----

// Console reads the AT console from a file (stdin or a tty).
type Console struct{ f *os.File }

func OpenConsole(f *os.File) *Console { return &Console{f: f} }

func (c *Console) Write(b []byte) (int, error) { return c.f.Write(b) }

// Recv blocks until some bytes arrive. ctx is checked before the read only.
func (c *Console) Recv(ctx context.Context, buf []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.f.Read(buf)
}
