// Package halfake provides in-memory hardware for tests and the simulator:
// pins, an SPI port, a MAX31865 register model, a battery and a restarter.
package halfake

import (
	"math"
	"sync"

	"tinygo.org/x/drivers"

	"rtdnode/services/hal/halcore"
)

// ---- GPIO ----

type Pin struct {
	mu     sync.Mutex
	num    int
	level  bool
	output bool
	pull   halcore.Pull

	// GetFunc, when set, overrides the stored level for Get.
	GetFunc func() bool
}

func NewPin(n int) *Pin { return &Pin{num: n} }

func (p *Pin) ConfigureInput(pull halcore.Pull) error {
	p.mu.Lock()
	p.output, p.pull = false, pull
	p.mu.Unlock()
	return nil
}

func (p *Pin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.output, p.level = true, initial
	p.mu.Unlock()
	return nil
}

func (p *Pin) Set(level bool) { p.mu.Lock(); p.level = level; p.mu.Unlock() }

func (p *Pin) Get() bool {
	p.mu.Lock()
	f, l := p.GetFunc, p.level
	p.mu.Unlock()
	if f != nil {
		return f()
	}
	return l
}

func (p *Pin) Number() int { return p.num }

// Parked reports an input with pull-down.
func (p *Pin) Parked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.output && p.pull == halcore.PullDown
}

// ---- SPI ----

type SPIPort struct {
	mu       sync.Mutex
	Bus      drivers.SPI
	BeginErr error
	Begins   int
	Ends     int
	Active   bool
	pins     []halcore.GPIOPin
}

// NewSPIPort returns a port with four bus pins (MOSI, MISO, SCK, CS).
func NewSPIPort(bus drivers.SPI) *SPIPort {
	return &SPIPort{
		Bus:  bus,
		pins: []halcore.GPIOPin{NewPin(11), NewPin(12), NewPin(13), NewPin(14)},
	}
}

func (s *SPIPort) Begin() (drivers.SPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Begins++
	if s.BeginErr != nil {
		return nil, s.BeginErr
	}
	s.Active = true
	return s.Bus, nil
}

func (s *SPIPort) End() error {
	s.mu.Lock()
	s.Ends++
	s.Active = false
	s.mu.Unlock()
	return nil
}

func (s *SPIPort) Pins() []halcore.GPIOPin { return s.pins }

// AllParked reports whether every bus pin is an input pulled down.
func (s *SPIPort) AllParked() bool {
	for _, p := range s.pins {
		if fp, ok := p.(*Pin); !ok || !fp.Parked() {
			return false
		}
	}
	return true
}

// ---- MAX31865 register model ----

// MAX31865 emulates the converter's register file on a drivers.SPI. A fault
// condition set with SetReading re-latches on every RTD read, as the chip
// re-detects it on each conversion.
type MAX31865 struct {
	mu        sync.Mutex
	regs      [8]byte
	condition uint8
	Absent    bool
	TxErr     error
	Txns      int
}

// SetReading loads an RTD resistance (for reference resistor ref) and a
// fault status.
func (m *MAX31865) SetReading(ohms, ref float32, status uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code := uint16(math.Round(float64(ohms) * 32768 / float64(ref)))
	raw := code << 1
	m.regs[1], m.regs[2] = byte(raw>>8), byte(raw)
	m.regs[7] = 0
	m.condition = status
}

// Reg returns a raw register value.
func (m *MAX31865) Reg(a int) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[a]
}

func (m *MAX31865) Tx(w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Txns++
	if m.TxErr != nil {
		return m.TxErr
	}
	if m.Absent {
		for i := range r {
			r[i] = 0xFF
		}
		return nil
	}
	reg := int(w[0] & 0x7F)
	if w[0]&0x80 != 0 {
		for i, v := range w[1:] {
			a := reg + i
			if a == 0 {
				if v&0x02 != 0 {
					m.regs[7] = 0
					m.regs[2] &^= 1
				}
				v &^= 0x0E
			}
			if a < len(m.regs) {
				m.regs[a] = v
			}
		}
		return nil
	}
	if reg == 1 && m.condition != 0 {
		m.regs[7] |= m.condition
		m.regs[2] |= 1
	}
	for i := 1; i < len(r); i++ {
		if a := reg + i - 1; a < len(m.regs) {
			r[i] = m.regs[a]
		}
	}
	return nil
}

func (m *MAX31865) Transfer(b byte) (byte, error) { return 0, nil }

// ---- board services ----

type Battery struct {
	mu  sync.Mutex
	MV  float32
	Err error
	N   int
}

func (b *Battery) ReadMillivolts() (float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.N++
	return b.MV, b.Err
}

type Restarter struct {
	mu      sync.Mutex
	Count   int
	Reasons []string
}

func (r *Restarter) Restart(reason string) {
	r.mu.Lock()
	r.Count++
	r.Reasons = append(r.Reasons, reason)
	r.mu.Unlock()
}

func (r *Restarter) Restarts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Count
}

// Board returns a complete fake board around chip.
func Board(chip *MAX31865) (halcore.Board, *SPIPort) {
	port := NewSPIPort(chip)
	return halcore.Board{
		SPI:       port,
		ChipSel:   NewPin(10),
		Rail:      NewPin(2),
		DataReady: NewPin(6),
		Battery:   &Battery{MV: 3900},
		Restarter: &Restarter{},
	}, port
}
