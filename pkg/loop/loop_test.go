// ABOUTME: Tests for the event loop and manual timers
// ABOUTME: Tests ordering, shutdown, and timer cancellation
package loop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l
}

func TestLoopRunsInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}
	l.Do(func() {})

	for i, v := range got {
		if v != i {
			t.Fatalf("expected callbacks in order, got %v", got)
		}
	}
	if len(got) != 10 {
		t.Errorf("expected 10 callbacks, got %d", len(got))
	}
}

func TestLoopPostAfterShutdown(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	cancel()
	<-l.Done()

	if l.Post(func() {}) {
		t.Error("expected Post to fail after shutdown")
	}
	if l.Do(func() {}) {
		t.Error("expected Do to fail after shutdown")
	}
}

func TestLoopEveryStop(t *testing.T) {
	l := startLoop(t)

	var ticks atomic.Int32
	r := l.Every(5*time.Millisecond, func() { ticks.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("ticker never fired")
		}
		time.Sleep(time.Millisecond)
	}

	l.Do(r.Stop)
	stoppedAt := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	l.Do(func() {})

	if ticks.Load() != stoppedAt {
		t.Errorf("expected no ticks after Stop, got %d more", ticks.Load()-stoppedAt)
	}
}

func TestLoopAfterStop(t *testing.T) {
	l := startLoop(t)

	var fired atomic.Bool
	r := l.After(20*time.Millisecond, func() { fired.Store(true) })
	r.Stop()
	r.Stop() // idempotent

	time.Sleep(50 * time.Millisecond)
	l.Do(func() {})

	if fired.Load() {
		t.Error("expected stopped timer not to fire")
	}
}

func TestManualTimersEvery(t *testing.T) {
	start := time.Unix(0, 0)
	m := NewManualTimers(start, nil)

	var fired []time.Duration
	r := m.Every(100*time.Millisecond, func() {
		fired = append(fired, m.Now().Sub(start))
	})

	m.Advance(350 * time.Millisecond)
	if len(fired) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(fired))
	}
	if fired[2] != 300*time.Millisecond {
		t.Errorf("expected third tick at 300ms, got %v", fired[2])
	}
	if m.Now().Sub(start) != 350*time.Millisecond {
		t.Errorf("expected clock at 350ms, got %v", m.Now().Sub(start))
	}

	r.Stop()
	m.Advance(time.Second)
	if len(fired) != 3 {
		t.Errorf("expected no ticks after Stop, got %d", len(fired))
	}
	if m.Active() != 0 {
		t.Errorf("expected no active timers, got %d", m.Active())
	}
}

func TestManualTimersAfterAndRearm(t *testing.T) {
	m := NewManualTimers(time.Unix(0, 0), nil)

	count := 0
	var r Repeater
	r = m.Every(time.Second, func() {
		count++
		// Cancel-then-rearm from inside the callback
		r.Stop()
		r = m.Every(time.Second, func() { count += 10 })
	})

	once := 0
	m.After(1500*time.Millisecond, func() { once++ })

	m.Advance(3 * time.Second)

	if once != 1 {
		t.Errorf("expected one-shot to fire once, got %d", once)
	}
	if count != 21 {
		t.Errorf("expected count 21, got %d", count)
	}
	if m.Active() != 1 {
		t.Errorf("expected 1 active timer, got %d", m.Active())
	}
}

func TestManualTimersWithExecutor(t *testing.T) {
	l := startLoop(t)
	m := NewManualTimers(time.Unix(0, 0), l)

	var onLoop atomic.Bool
	m.Every(time.Second, func() { onLoop.Store(true) })
	m.Advance(time.Second)

	if !onLoop.Load() {
		t.Error("expected callback to have run before Advance returned")
	}
}
