package playback

import "time"

// Tick is an autoplay step scheduled by a Controller. It remembers the tick
// generation and document generation it was scheduled under; once either has
// moved on, delivering it does nothing.
type Tick struct {
	gen uint64
	doc uint64
}

// Scheduler delivers a Tick back to Controller.Tick after d. The controller
// never waits on its own, so the caller's event loop decides how time passes.
type Scheduler interface {
	Schedule(d time.Duration, t Tick)
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(d time.Duration, t Tick)

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(d time.Duration, t Tick) { f(d, t) }
