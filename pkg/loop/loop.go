// ABOUTME: Single-goroutine event loop for session and playback state
// ABOUTME: Serializes posted callbacks and arms cancellable repeating timers
package loop

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Executor runs callbacks on the goroutine that owns the state they touch.
type Executor interface {
	// Post queues fn and returns false once the executor has shut down.
	Post(fn func()) bool
	// Do runs fn and waits for it to finish. Returns false if fn never ran.
	Do(fn func()) bool
}

// Timers arms callbacks that fire on the owning executor.
type Timers interface {
	// Every calls fn every d until the returned Repeater is stopped.
	Every(d time.Duration, fn func()) Repeater
	// After calls fn once after d unless stopped first.
	After(d time.Duration, fn func()) Repeater
}

// Repeater is a handle to an armed timer. Stop is idempotent and, once it
// returns, fn will not run again.
type Repeater interface {
	Stop()
}

// Loop executes posted callbacks one at a time on a single goroutine.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	doneOnce sync.Once
}

// New creates a loop. Nothing runs until Run is called.
func New() *Loop {
	return &Loop{
		tasks: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Run executes callbacks until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	defer l.doneOnce.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post queues fn for execution on the loop goroutine.
// Must not be called from the loop goroutine while the queue is full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it.
// Calling Do from the loop goroutine deadlocks.
func (l *Loop) Do(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}

	select {
	case <-finished:
		return true
	case <-l.done:
		// The loop may have run fn just before exiting
		select {
		case <-finished:
			return true
		default:
			return false
		}
	}
}

// Every arms a ticker whose ticks are delivered through the loop
func (l *Loop) Every(d time.Duration, fn func()) Repeater {
	r := newRepeater()
	ticker := time.NewTicker(d)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-l.done:
				return
			case <-ticker.C:
				l.Post(r.guard(fn))
			}
		}
	}()

	return r
}

// After arms a one-shot timer delivered through the loop
func (l *Loop) After(d time.Duration, fn func()) Repeater {
	r := newRepeater()
	timer := time.AfterFunc(d, func() {
		l.Post(r.guard(fn))
	})
	r.onStop = func() { timer.Stop() }
	return r
}

// repeater is the Repeater shared by Loop and ManualTimers
type repeater struct {
	stopped  atomic.Bool
	stop     chan struct{}
	stopOnce sync.Once
	onStop   func()
}

func newRepeater() *repeater {
	return &repeater{stop: make(chan struct{})}
}

func (r *repeater) Stop() {
	r.stopOnce.Do(func() {
		r.stopped.Store(true)
		close(r.stop)
		if r.onStop != nil {
			r.onStop()
		}
	})
}

// guard drops ticks that were queued before Stop but run after it
func (r *repeater) guard(fn func()) func() {
	return func() {
		if r.stopped.Load() {
			return
		}
		fn()
	}
}
