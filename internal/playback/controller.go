// Package playback drives the cursor of a token index through time and through
// discrete navigation. Nothing here returns an error: out-of-range positions are
// clamped and invalid speeds are ignored.
package playback

import (
	"github.com/example/tokenreplay/internal/present"
	"github.com/example/tokenreplay/internal/stream"
)

// State is the autoplay state.
type State int

const (
	Stopped State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}

	return "stopped"
}

// Controller is the playback state machine over one stream.Index.
//
// Every transition that must void an already scheduled tick (pause, manual
// navigation, loading text, starting again) bumps gen. A Tick carries the gen
// and document generation it was scheduled with, so late deliveries are no-ops
// and never touch a newer sequence.
type Controller struct {
	index *stream.Index
	sched Scheduler
	state State
	speed Speed
	gen   uint64
}

// NewController returns a stopped controller at DefaultSpeed.
func NewController(index *stream.Index, sched Scheduler) *Controller {
	return &Controller{
		index: index,
		sched: sched,
		speed: DefaultSpeed,
	}
}

// Index returns the controlled index.
func (c *Controller) Index() *stream.Index { return c.index }

// State returns the current autoplay state.
func (c *Controller) State() State { return c.state }

// Playing reports whether autoplay is running.
func (c *Controller) Playing() bool { return c.state == Playing }

// Speed returns the interval used for the next scheduled tick.
func (c *Controller) Speed() Speed { return c.speed }

// Load replaces the source text. The sequence is re-encoded, the cursor goes
// back to 0, and autoplay stops.
func (c *Controller) Load(text string) {
	c.stop()
	c.index.Reset(text)
}

// Play starts autoplay. It does nothing when already playing or when every
// token is already revealed; rewind first.
func (c *Controller) Play() bool {
	if c.state == Playing || c.index.Cursor() >= c.index.Len() {
		return false
	}

	c.state = Playing
	c.gen++
	c.schedule()

	return true
}

// Pause stops autoplay.
func (c *Controller) Pause() bool {
	if c.state != Playing {
		return false
	}

	c.stop()

	return true
}

// Toggle pauses when playing and plays otherwise.
func (c *Controller) Toggle() {
	if c.state == Playing {
		c.Pause()
		return
	}

	c.Play()
}

// Tick advances autoplay by one token. A tick that is stale (paused, navigated
// or reloaded since it was scheduled) is ignored. Reaching a tick with every
// token revealed stops playback instead of rescheduling. Tick reports whether
// the cursor moved.
func (c *Controller) Tick(t Tick) bool {
	if c.state != Playing || t.gen != c.gen || t.doc != c.index.Generation() {
		return false
	}

	cur := c.index.Cursor()
	if cur >= c.index.Len() {
		c.stop()
		return false
	}

	c.index.SetCursor(cur + 1)
	c.schedule()

	return true
}

// StepForward reveals one more token and stops autoplay.
func (c *Controller) StepForward() int {
	c.stop()
	return c.index.SetCursor(c.index.Cursor() + 1)
}

// StepBack hides the last revealed token and stops autoplay.
func (c *Controller) StepBack() int {
	c.stop()
	return c.index.SetCursor(c.index.Cursor() - 1)
}

// JumpToStart rewinds to cursor 0 and stops autoplay.
func (c *Controller) JumpToStart() int {
	c.stop()
	return c.index.SetCursor(0)
}

// JumpToEnd reveals every token and stops autoplay.
func (c *Controller) JumpToEnd() int {
	c.stop()
	return c.index.SetCursor(c.index.Len())
}

// JumpTo moves the cursor to i, clamped, and stops autoplay.
func (c *Controller) JumpTo(i int) int {
	c.stop()
	return c.index.SetCursor(i)
}

// SeekToken handles a click on the label of token i: the cursor lands just
// after it, so the clicked token is the last one revealed.
func (c *Controller) SeekToken(i int) int {
	if i >= c.index.Len() {
		return c.JumpToEnd()
	}

	return c.JumpTo(i + 1)
}

// SetSpeed changes the interval used from the next scheduled tick on. An
// already pending tick keeps its interval. Values outside the allowed set are
// ignored and the previous speed kept.
func (c *Controller) SetSpeed(s Speed) bool {
	if !s.Valid() {
		return false
	}

	c.speed = s

	return true
}

// Status returns the state shown next to the text.
func (c *Controller) Status() present.Status {
	return present.Status{Playing: c.Playing(), Speed: c.speed.Duration()}
}

// Snapshot returns a full frame of the current state.
func (c *Controller) Snapshot() present.Frame {
	return present.Snapshot(c.index, c.Status())
}

// Position returns a frame without the token list.
func (c *Controller) Position() present.Frame {
	return present.Position(c.index, c.Status())
}

func (c *Controller) stop() {
	c.state = Stopped
	c.gen++
}

func (c *Controller) schedule() {
	c.sched.Schedule(c.speed.Duration(), Tick{gen: c.gen, doc: c.index.Generation()})
}
