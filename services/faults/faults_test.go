package faults

import (
	"testing"

	"rtdnode/drivers/max31865"
)

func TestShouldEncodeIgnoresFaultBits(t *testing.T) {
	cases := []struct {
		r    Reading
		want bool
	}{
		{Reading{Ohms: 0, Celsius: -242}, false},
		{Reading{Ohms: 0, Status: 0xFC}, false},
		{Reading{Ohms: 109.7, Celsius: 25}, true},
		{Reading{Ohms: 109.7, Status: 0xFC}, true},
		{Reading{Ohms: 0.01}, true},
	}
	for _, c := range cases {
		if got := ShouldEncode(c.r); got != c.want {
			t.Fatalf("ShouldEncode(%+v)=%v want %v", c.r, got, c.want)
		}
	}
}

func TestDecodeEachBit(t *testing.T) {
	bits := map[uint8]Category{
		max31865.FaultHighThreshold: HighThreshold,
		max31865.FaultLowThreshold:  LowThreshold,
		max31865.FaultRefInHigh:     RefInHigh,
		max31865.FaultRefInLowOpen:  RefInLowOpen,
		max31865.FaultRTDInLowOpen:  RTDInLowOpen,
		max31865.FaultVoltageOOR:    VoltageOOR,
	}
	for bit, cat := range bits {
		got := Decode(bit)
		if len(got) != 1 || got[0].Category != cat || got[0].Label == "" {
			t.Fatalf("bit %#02x -> %+v", bit, got)
		}
	}
}

func TestDecodeMultipleAndNone(t *testing.T) {
	if got := Decode(0); len(got) != 0 {
		t.Fatalf("no bits should give no records: %+v", got)
	}
	// Bits 0 and 1 are unused by the chip.
	if got := Decode(0x03); len(got) != 0 {
		t.Fatalf("unused bits decoded: %+v", got)
	}
	got := Decode(max31865.FaultHighThreshold | max31865.FaultRTDInLowOpen)
	if len(got) != 2 || got[0].Category != HighThreshold || got[1].Category != RTDInLowOpen {
		t.Fatalf("got %+v", got)
	}
}
