// Package debounce coalesces bursts of triggers into a single call that
// runs once a quiet period has elapsed.
package debounce

import (
	"sync"
	"time"

	"github.com/alexanderramin/boardsync/internal/clock"
)

// Debouncer runs fn once no Trigger has happened for the configured delay.
// Each Trigger cancels the pending run and restarts the delay.
type Debouncer struct {
	clk   clock.Clock
	delay time.Duration
	fn    func()

	mu        sync.Mutex
	timer     clock.Timer
	gen       uint64
	cancelled bool
}

func New(clk clock.Clock, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{clk: clk, delay: delay, fn: fn}
}

// Trigger schedules fn after the delay, replacing any pending run.
// Triggers after Cancel are ignored.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancelled {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clk.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs a pending call immediately. It reports whether anything ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	d.mu.Unlock()

	d.fn()
	return true
}

// Cancel drops any pending call and disables future triggers.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelled = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A timer that lost the race with Stop must not run a superseded call.
	if gen != d.gen || d.cancelled {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
