package timex

import (
	"testing"
	"time"
)

func TestFakeSleepAdvances(t *testing.T) {
	start := time.Unix(1000, 0)
	f := NewFake(start)
	f.Sleep(100 * time.Millisecond)
	f.Sleep(250 * time.Millisecond)
	if got := f.Now().Sub(start); got != 350*time.Millisecond {
		t.Fatalf("advanced %v", got)
	}
	if f.Slept() != 350*time.Millisecond {
		t.Fatalf("slept %v", f.Slept())
	}
}

func TestResetTimerRearms(t *testing.T) {
	tm := time.NewTimer(time.Hour)
	ResetTimer(tm, time.Millisecond)
	select {
	case <-tm.C:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire after reset")
	}
	// Fired and drained: reset again must still work.
	ResetTimer(tm, time.Millisecond)
	select {
	case <-tm.C:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire after second reset")
	}
}
