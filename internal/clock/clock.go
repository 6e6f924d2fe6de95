// Package clock abstracts wall-clock time and delayed callbacks so timers
// can be driven by tests without sleeping. Fake fires callbacks on the
// goroutine advancing it, in deadline order, so a callback that schedules
// the next timer sees its own deadline as now.
package clock

import (
	"time"

	wall "github.com/benbjohnson/clock"
)

// Timer is a cancellable delayed callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Clock provides the current time and schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

var system = wall.New()

// Real is the wall Clock.
type Real struct{}

func (Real) Now() time.Time { return system.Now() }

func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return system.AfterFunc(d, fn)
}

// Every runs fn every interval until the returned stop function is called.
// The first run happens one interval after the call. After stop returns no
// further run starts.
func Every(clk Clock, interval time.Duration, fn func()) (stop func()) {
	r := &repeater{clk: clk, interval: interval, fn: fn}
	r.schedule()
	return r.stop
}
