package syncer

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of triggers into a single callback after a
// quiet window. Each trigger cancels the pending timer and starts a new
// one, so at most one callback is scheduled at any moment. Cancel and
// reschedule are atomic with respect to concurrent triggers.
type debouncer struct {
	mu     sync.Mutex
	window time.Duration
	fn     func()
	timer  *time.Timer
	closed bool
}

func newDebouncer(window time.Duration, fn func()) *debouncer {
	return &debouncer{window: window, fn: fn}
}

// Trigger (re)schedules the callback to run after the quiet window.
// Returns true when an already-pending callback was coalesced.
func (d *debouncer) Trigger() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	coalesced := false
	if d.timer != nil {
		d.timer.Stop()
		coalesced = true
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		d.timer = nil
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			d.fn()
		}
	})
	return coalesced
}

// Flush cancels any pending timer and reports whether one was pending.
// The caller runs the callback itself, synchronously.
func (d *debouncer) Flush() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
		return true
	}
	return false
}

// Stop cancels the pending timer permanently. An already-started
// callback is not interrupted.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
