package payload

import (
	"bytes"
	"errors"
	"testing"

	"rtdnode/errcode"
)

func TestEncodeBatteryAndTemperature(t *testing.T) {
	e := NewEncoder(MaxSize)
	if err := e.AddVoltage(ChannelBattery, 3.987); err != nil {
		t.Fatal(err)
	}
	if err := e.AddTemperature(ChannelTemperature, -12.34); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0x01, 0x74, 0x01, 0x8F, // 399 -> 3.99 V
		0x02, 0x67, 0xFF, 0x85, // -123 -> -12.3 °C
	}
	if !bytes.Equal(e.Bytes(), want) {
		t.Fatalf("got % X want % X", e.Bytes(), want)
	}
	if e.Len() != len(want) {
		t.Fatalf("Len=%d", e.Len())
	}
}

func TestResetEmpties(t *testing.T) {
	e := NewEncoder(MaxSize)
	_ = e.AddVoltage(ChannelBattery, 4.1)
	e.Reset()
	if e.Len() != 0 || len(e.Bytes()) != 0 {
		t.Fatal("reset did not empty the frame")
	}
}

func TestSizeBoundRejects(t *testing.T) {
	e := NewEncoder(6)
	if err := e.AddVoltage(ChannelBattery, 3.3); err != nil {
		t.Fatal(err)
	}
	err := e.AddTemperature(ChannelTemperature, 20)
	if !errors.Is(err, errcode.TooLarge) {
		t.Fatalf("want too_large, got %v", err)
	}
	if e.Len() != 4 {
		t.Fatalf("rejected append changed the frame: len=%d", e.Len())
	}
}

func TestNeverExceedsMax(t *testing.T) {
	e := NewEncoder(1000)
	for i := 0; i < 100; i++ {
		_ = e.AddTemperature(byte(i), float32(i))
	}
	if e.Len() > MaxSize {
		t.Fatalf("len %d beyond %d", e.Len(), MaxSize)
	}
	if e.Len() != 252 {
		t.Fatalf("expected 63 entries (252 bytes), got %d", e.Len())
	}
}

func TestValueClamping(t *testing.T) {
	e := NewEncoder(MaxSize)
	_ = e.AddVoltage(ChannelBattery, -1)
	_ = e.AddTemperature(ChannelTemperature, 5000)
	got, err := Decode(e.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Value != 0 || got[1].Value != 3276.7 {
		t.Fatalf("got %+v", got)
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	if _, err := Decode([]byte{0x01, 0x74, 0x01}); err == nil {
		t.Fatal("truncated frame accepted")
	}
	if _, err := Decode([]byte{0x01, 0x99, 0, 0}); errcode.Of(err) != errcode.Unsupported {
		t.Fatalf("unknown type: %v", err)
	}
}
