// Package debounce delays a call until input settles. Every scheduled call
// carries a generation so that results of superseded calls can be dropped.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recently scheduled function after a quiet period
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Handle refers to one scheduled call
type Handle struct {
	d   *Debouncer
	gen uint64
}

// New creates a debouncer with the given delay
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule cancels any pending call and arranges for fn to run after the
// delay. fn receives the generation it was scheduled under.
func (d *Debouncer) Schedule(fn func(gen uint64)) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// Stop can lose the race against an expiring timer
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		fn(gen)
	})

	return Handle{d: d, gen: gen}
}

// Cancel drops the pending call, if any, and invalidates the current
// generation so in-flight results are treated as stale
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer) cancelLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Current returns the latest generation
func (d *Debouncer) Current() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gen
}

// IsCurrent reports whether gen has not been superseded
func (d *Debouncer) IsCurrent(gen uint64) bool {
	return d.Current() == gen
}

// Pending reports whether a call is waiting for its timer
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Cancel cancels the call if it is still the latest one. It reports whether
// anything was cancelled.
func (h Handle) Cancel() bool {
	if h.d == nil {
		return false
	}
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if h.d.gen != h.gen {
		return false
	}
	h.d.cancelLocked()
	return true
}
