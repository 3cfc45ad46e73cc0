package conv

import (
	"bytes"
	"testing"
)

func TestAppendHexLengthAndCase(t *testing.T) {
	src := []byte{0x00, 0x0a, 0xff, 0x12, 0xbe}
	got := AppendHex(nil, src)
	if len(got) != 2*len(src) {
		t.Fatalf("len=%d want %d", len(got), 2*len(src))
	}
	if string(got) != "000AFF12BE" {
		t.Fatalf("got %q", got)
	}
	if Hex(nil) != "" {
		t.Fatalf("empty input should give empty string")
	}
}

func TestHexRoundTripAllBytes(t *testing.T) {
	src := make([]byte, 256)
	for i := range src {
		src[i] = byte(i)
	}
	s := Hex(src)
	if len(s) != 512 {
		t.Fatalf("len=%d", len(s))
	}
	back, ok := DecodeHex(s)
	if !ok || !bytes.Equal(back, src) {
		t.Fatalf("round trip failed")
	}
}

func TestDecodeHexRejects(t *testing.T) {
	for _, s := range []string{"A", "GG", "0x"} {
		if _, ok := DecodeHex(s); ok {
			t.Fatalf("%q should be rejected", s)
		}
	}
}

func TestAppendHexSpaced(t *testing.T) {
	if got := string(AppendHexSpaced(nil, []byte{0x01, 0xAB})); got != "01 AB " {
		t.Fatalf("got %q", got)
	}
}

func TestAppendInt(t *testing.T) {
	cases := map[int64]string{0: "0", 7: "7", -112: "-112", 65535: "65535"}
	for n, want := range cases {
		if got := string(AppendInt(nil, n)); got != want {
			t.Fatalf("AppendInt(%d)=%q want %q", n, got, want)
		}
	}
}
