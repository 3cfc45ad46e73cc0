package errcode

import (
	"errors"
	"testing"
)

func TestOf(t *testing.T) {
	if Of(nil) != OK {
		t.Fatal("nil should map to ok")
	}
	if Of(Busy) != Busy {
		t.Fatal("bare code should map to itself")
	}
	cause := errors.New("spi nak")
	err := Wrap(Timeout, "atmodem.Join", cause)
	if Of(err) != Timeout {
		t.Fatalf("got %q", Of(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause should unwrap")
	}
	if Of(errors.New("x")) != Error {
		t.Fatal("foreign errors map to generic code")
	}
}

func TestErrorString(t *testing.T) {
	e := &E{C: TooLarge, Op: "send", Msg: "dr0"}
	if e.Error() != "send: too_large: dr0" {
		t.Fatalf("got %q", e.Error())
	}
}
