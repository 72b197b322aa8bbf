// ABOUTME: Manually advanced Timers implementation for deterministic tests
// ABOUTME: Fires due callbacks in time order when Advance is called
package loop

import (
	"sync"
	"time"
)

// ManualTimers is a Timers whose clock only moves when Advance is called.
// When exec is nil callbacks run on the goroutine calling Advance.
type ManualTimers struct {
	mu      sync.Mutex
	now     time.Time
	exec    Executor
	entries []*manualEntry
}

type manualEntry struct {
	r     *repeater
	next  time.Time
	every time.Duration
	fn    func()
}

// NewManualTimers creates manual timers starting at start
func NewManualTimers(start time.Time, exec Executor) *ManualTimers {
	return &ManualTimers{now: start, exec: exec}
}

// Now returns the manual clock
func (m *ManualTimers) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every implements Timers
func (m *ManualTimers) Every(d time.Duration, fn func()) Repeater {
	return m.add(d, d, fn)
}

// After implements Timers
func (m *ManualTimers) After(d time.Duration, fn func()) Repeater {
	return m.add(d, 0, fn)
}

func (m *ManualTimers) add(delay, every time.Duration, fn func()) Repeater {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &manualEntry{
		r:     newRepeater(),
		next:  m.now.Add(delay),
		every: every,
		fn:    fn,
	}
	m.entries = append(m.entries, e)
	return e.r
}

// Advance moves the clock forward by d, firing every callback that falls due
// on the way, in due-time order.
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		e := m.nextDue(target)
		if e == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = e.next
		if e.every > 0 {
			e.next = e.next.Add(e.every)
		} else {
			e.r.Stop()
		}
		m.mu.Unlock()

		m.fire(e)
	}
}

// nextDue returns the earliest live entry due at or before target
func (m *ManualTimers) nextDue(target time.Time) *manualEntry {
	live := m.entries[:0]
	var due *manualEntry
	for _, e := range m.entries {
		if e.r.stopped.Load() {
			continue
		}
		live = append(live, e)
		if e.next.After(target) {
			continue
		}
		if due == nil || e.next.Before(due.next) {
			due = e
		}
	}
	m.entries = live
	return due
}

func (m *ManualTimers) fire(e *manualEntry) {
	// One-shot entries are marked stopped before firing, so bypass the guard
	fn := e.fn
	if e.every > 0 {
		fn = e.r.guard(e.fn)
	}
	if m.exec != nil {
		m.exec.Do(fn)
		return
	}
	fn()
}

// Active reports how many timers are still armed
func (m *ManualTimers) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, e := range m.entries {
		if !e.r.stopped.Load() {
			n++
		}
	}
	return n
}
