package max31865

import (
	"errors"
	"math"
	"testing"
)

// fakeChip emulates the MAX31865 register file behind a drivers.SPI.
type fakeChip struct {
	regs    [8]byte
	absent  bool
	txErr   error
	csLow   bool
	csEdges int
}

func (f *fakeChip) Tx(w, r []byte) error {
	if f.txErr != nil {
		return f.txErr
	}
	if f.absent {
		for i := range r {
			r[i] = 0xFF
		}
		return nil
	}
	reg := w[0] &^ writeBit
	if w[0]&writeBit != 0 {
		for i, v := range w[1:] {
			a := int(reg) + i
			if a == regConfig {
				if v&cfgFaultClear != 0 {
					f.regs[regFault] = 0
					f.regs[regRTDLSB] &^= 1
				}
				v &^= cfgFaultClear | cfgFaultCycle
			}
			f.regs[a] = v
		}
		return nil
	}
	for i := 1; i < len(r); i++ {
		r[i] = f.regs[int(reg)+i-1]
	}
	return nil
}

func (f *fakeChip) Transfer(b byte) (byte, error) { return 0, nil }

func (f *fakeChip) Set(level bool) {
	if !level && !f.csLow {
		f.csEdges++
	}
	f.csLow = !level
}

func (f *fakeChip) setRTD(ohms, ref float32) {
	code := uint16(math.Round(float64(ohms) * codeFullScale / float64(ref)))
	raw := code << 1
	f.regs[regRTDMSB] = byte(raw >> 8)
	f.regs[regRTDLSB] = byte(raw)
}

func TestConfigureWritesThreeWire50Hz(t *testing.T) {
	chip := &fakeChip{}
	d := New(chip, chip)
	if err := d.Configure(Config{Wires: ThreeWire, RTD: PT100}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	want := byte(cfgBias | cfgAutoConv | cfg3Wire | cfgFilter50Hz)
	if chip.regs[regConfig] != want {
		t.Fatalf("config=%#02x want %#02x", chip.regs[regConfig], want)
	}
	if chip.csLow {
		t.Fatal("CS left asserted")
	}
	if chip.csEdges == 0 {
		t.Fatal("CS never asserted")
	}
}

func TestConfigureAbsentChip(t *testing.T) {
	chip := &fakeChip{absent: true}
	d := New(chip, nil)
	if err := d.Configure(Config{Wires: ThreeWire}); !errors.Is(err, ErrNotDetected) {
		t.Fatalf("want ErrNotDetected, got %v", err)
	}
}

func TestConfigureBusError(t *testing.T) {
	boom := errors.New("spi")
	d := New(&fakeChip{txErr: boom}, nil)
	if err := d.Configure(Config{}); !errors.Is(err, boom) {
		t.Fatalf("want bus error, got %v", err)
	}
}

func TestThresholdRegisters(t *testing.T) {
	chip := &fakeChip{}
	d := New(chip, nil)
	if err := d.Configure(Config{Wires: ThreeWire, RTD: PT100}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetLowFaultThreshold(0); err != nil {
		t.Fatal(err)
	}
	// 100 Ω / 430 Ω * 32768 = 7620.47 -> 7620, shifted left by one.
	got := uint16(chip.regs[regLFaultMSB])<<8 | uint16(chip.regs[regLFaultLSB])
	if got != 7620<<1 {
		t.Fatalf("low threshold=%d want %d", got, 7620<<1)
	}
	if err := d.SetHighFaultThreshold(34); err != nil {
		t.Fatal(err)
	}
	hi := uint16(chip.regs[regHFaultMSB])<<8 | uint16(chip.regs[regHFaultLSB])
	if hi <= got {
		t.Fatalf("high threshold %d should exceed low %d", hi, got)
	}
}

func TestReadTemperatureAndStatus(t *testing.T) {
	chip := &fakeChip{}
	d := New(chip, nil)
	if err := d.Configure(Config{Wires: ThreeWire, RTD: PT100}); err != nil {
		t.Fatal(err)
	}
	chip.setRTD(Resistance(PT100, 25), 430)
	chip.regs[regFault] = FaultHighThreshold

	temp, ohms, status, err := d.ReadTemperatureAndStatus()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if math.Abs(float64(temp-25)) > 0.05 {
		t.Fatalf("temp=%v", temp)
	}
	if math.Abs(float64(ohms-109.73)) > 0.05 {
		t.Fatalf("ohms=%v", ohms)
	}
	if status != FaultHighThreshold {
		t.Fatalf("status=%#x", status)
	}
	if chip.regs[regFault] != 0 {
		t.Fatal("fault register should be cleared after read")
	}
}

func TestZeroResistanceReadsZero(t *testing.T) {
	chip := &fakeChip{}
	d := New(chip, nil)
	if err := d.Configure(Config{Wires: ThreeWire}); err != nil {
		t.Fatal(err)
	}
	temp, ohms, _, err := d.ReadTemperatureAndStatus()
	if err != nil || ohms != 0 || temp != 0 {
		t.Fatalf("temp=%v ohms=%v err=%v", temp, ohms, err)
	}
}

func TestTemperatureRoundTrip(t *testing.T) {
	for _, rtd := range []RTDType{PT100, PT1000} {
		for _, c := range []float32{-100, -40, -0.5, 0, 25, 100, 350} {
			got := Temperature(rtd, Resistance(rtd, c))
			if math.Abs(float64(got-c)) > 0.2 {
				t.Fatalf("rtd=%d %v°C -> %v°C", rtd, c, got)
			}
		}
	}
}
