package syncer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalesces(t *testing.T) {
	var fires atomic.Int32
	d := newDebouncer(25*time.Millisecond, func() { fires.Add(1) })
	defer d.Stop()

	coalesced := 0
	for i := 0; i < 5; i++ {
		if d.Trigger() {
			coalesced++
		}
	}
	if coalesced != 4 {
		t.Errorf("coalesced = %d, want 4", coalesced)
	}

	time.Sleep(100 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Errorf("fires = %d, want 1", got)
	}
}

func TestDebouncerStop(t *testing.T) {
	var fires atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { fires.Add(1) })

	d.Trigger()
	d.Stop()
	time.Sleep(80 * time.Millisecond)
	if fires.Load() != 0 {
		t.Error("callback fired after Stop")
	}

	// A stopped debouncer ignores further triggers.
	if d.Trigger() {
		t.Error("Trigger on stopped debouncer reported coalescing")
	}
}

func TestDebouncerFlush(t *testing.T) {
	var fires atomic.Int32
	d := newDebouncer(20*time.Millisecond, func() { fires.Add(1) })
	defer d.Stop()

	if d.Flush() {
		t.Error("Flush with nothing pending reported a cancel")
	}
	d.Trigger()
	if !d.Flush() {
		t.Error("Flush did not report the pending timer")
	}
	time.Sleep(60 * time.Millisecond)
	if fires.Load() != 0 {
		t.Error("flushed timer still fired")
	}
}
