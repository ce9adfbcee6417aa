package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/example/tokenreplay/internal/present"
	"github.com/example/tokenreplay/internal/stream"
)

var (
	// ErrLoopClosed is returned by Send once Run has returned.
	ErrLoopClosed = errors.New("playback loop closed")
	// ErrLoopStarted is returned by every Run call after the first.
	ErrLoopStarted = errors.New("playback loop already started")
)

// Observer receives a frame after every change. Frames carry the token list
// only when the document generation differs from the previous frame.
type Observer func(present.Frame)

// Loop is a single-goroutine event loop owning a Controller. Commands and
// timer ticks are serialised through Run, so the controller, its index and the
// observer are only ever touched from one goroutine.
type Loop struct {
	ctrl     *Controller
	cmds     chan Command
	ticks    chan Tick
	done     chan struct{}
	observe  Observer
	log      *slog.Logger
	autoplay bool
	started  atomic.Bool

	timer   *time.Timer
	lastGen uint64
	emitted bool
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithObserver sets the frame observer.
func WithObserver(fn Observer) LoopOption {
	return func(l *Loop) { l.observe = fn }
}

// WithAutoplay starts playback as soon as Run begins.
func WithAutoplay(on bool) LoopOption {
	return func(l *Loop) { l.autoplay = on }
}

// WithSpeed sets the initial speed; invalid values keep DefaultSpeed.
func WithSpeed(s Speed) LoopOption {
	return func(l *Loop) { l.ctrl.SetSpeed(s) }
}

// WithLoopLogger sets the logger for ignored commands.
func WithLoopLogger(lg *slog.Logger) LoopOption {
	return func(l *Loop) { l.log = lg }
}

// NewLoop builds a loop over index. The index must not be used elsewhere
// once Run starts.
func NewLoop(index *stream.Index, opts ...LoopOption) *Loop {
	l := &Loop{
		cmds:    make(chan Command, 16),
		ticks:   make(chan Tick, 1),
		done:    make(chan struct{}),
		observe: func(present.Frame) {},
		log:     slog.Default(),
	}
	l.ctrl = NewController(index, SchedulerFunc(l.schedule))

	for _, fn := range opts {
		fn(l)
	}

	return l
}

// Send queues cmd for the loop. It blocks until the command is queued, ctx is
// done, or the loop has stopped.
func (l *Loop) Send(ctx context.Context, cmd Command) error {
	select {
	case l.cmds <- cmd:
		return nil
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes commands and ticks until ctx is cancelled. It emits one full
// frame on start. A Loop runs once; later calls return ErrLoopStarted.
func (l *Loop) Run(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrLoopStarted
	}

	defer func() {
		close(l.done)

		if l.timer != nil {
			l.timer.Stop()
		}
	}()

	if l.autoplay {
		l.ctrl.Play()
	}

	l.emit()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cmd := <-l.cmds:
			if !l.ctrl.Apply(cmd) {
				l.log.Debug("ignored playback command",
					slog.String("op", string(cmd.Op)),
					slog.Int("speed", cmd.Speed),
				)
			}

			l.emit()
		case t := <-l.ticks:
			wasPlaying := l.ctrl.Playing()
			if l.ctrl.Tick(t) || wasPlaying != l.ctrl.Playing() {
				l.emit()
			}
		}
	}
}

func (l *Loop) emit() {
	gen := l.ctrl.Index().Generation()
	if !l.emitted || gen != l.lastGen {
		l.emitted = true
		l.lastGen = gen
		l.observe(l.ctrl.Snapshot())

		return
	}

	l.observe(l.ctrl.Position())
}

// schedule runs on the loop goroutine (from inside controller calls). The
// previous timer is stopped; a tick it already fired is stale and ignored.
func (l *Loop) schedule(d time.Duration, t Tick) {
	if l.timer != nil {
		l.timer.Stop()
	}

	l.timer = time.AfterFunc(d, func() {
		select {
		case l.ticks <- t:
		case <-l.done:
		}
	})
}
