// ABOUTME: Tests for the lookahead playback scheduler
// ABOUTME: Tests start delay, gapless binding, underrun clamping and stop
package player

import (
	"math"
	"testing"
	"time"
)

const epsilon = 1e-9

func TestSchedulerFirstPush(t *testing.T) {
	dev := &fakeDevice{now: 5}
	timers := newTestTimers()
	s := NewScheduler(dev, timers, SchedulerConfig{})

	s.Push(testFrame())

	if s.State() != StateActive {
		t.Fatalf("expected active, got %v", s.State())
	}
	if len(dev.plays) != 1 {
		t.Fatalf("expected frame bound immediately, got %d bindings", len(dev.plays))
	}
	if math.Abs(dev.plays[0].at-5.1) > epsilon {
		t.Errorf("expected start at 5.1, got %v", dev.plays[0].at)
	}
	if timers.Active() != 1 {
		t.Errorf("expected poll armed, got %d timers", timers.Active())
	}
}

func TestSchedulerGapless(t *testing.T) {
	dev := &fakeDevice{}
	timers := newTestTimers()
	s := NewScheduler(dev, timers, SchedulerConfig{})

	for i := 0; i < 6; i++ {
		s.Push(testFrame())
	}
	for i := 0; i < 30; i++ {
		tick(dev, timers, 100*time.Millisecond)
	}

	if len(dev.plays) != 6 {
		t.Fatalf("expected 6 bindings, got %d", len(dev.plays))
	}
	for i := 1; i < len(dev.plays); i++ {
		prev := dev.plays[i-1]
		want := prev.at + prev.frame.Duration()
		if math.Abs(dev.plays[i].at-want) > epsilon {
			t.Errorf("frame %d: expected start %v, got %v", i, want, dev.plays[i].at)
		}
	}
	if s.Stats().Underruns != 0 {
		t.Errorf("expected no underruns, got %d", s.Stats().Underruns)
	}
	if s.Stats().Scheduled != 6 {
		t.Errorf("expected 6 scheduled, got %d", s.Stats().Scheduled)
	}
}

func TestSchedulerLookaheadBound(t *testing.T) {
	dev := &fakeDevice{}
	timers := newTestTimers()
	s := NewScheduler(dev, timers, SchedulerConfig{})

	for i := 0; i < 10; i++ {
		s.Push(testFrame())
	}

	// Only the first frame starts inside the 200ms window
	if len(dev.plays) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(dev.plays))
	}
	if s.QueueDepth() != 9 {
		t.Errorf("expected 9 queued, got %d", s.QueueDepth())
	}

	for i := 0; i < 20; i++ {
		tick(dev, timers, 100*time.Millisecond)
		for _, b := range dev.plays {
			if b.at-b.now > DefaultLookahead+DefaultStartDelay+epsilon {
				t.Fatalf("frame bound %vs ahead of clock", b.at-b.now)
			}
		}
	}
}

func TestSchedulerNeverRetroactive(t *testing.T) {
	dev := &fakeDevice{}
	timers := newTestTimers()
	s := NewScheduler(dev, timers, SchedulerConfig{})

	s.Push(testFrame())
	s.Push(testFrame())

	// Clock stalls past the scheduled time (e.g. device hiccup)
	dev.now = 2
	timers.Advance(100 * time.Millisecond)

	if len(dev.plays) != 2 {
		t.Fatalf("expected 2 bindings, got %d", len(dev.plays))
	}
	late := dev.plays[1]
	if late.at < late.now {
		t.Errorf("frame bound in the past: at=%v now=%v", late.at, late.now)
	}
	if late.at != 2 {
		t.Errorf("expected clamped start at 2, got %v", late.at)
	}
	if s.Stats().Underruns != 1 {
		t.Errorf("expected 1 underrun, got %d", s.Stats().Underruns)
	}
}

func TestSchedulerCompleteReturnsToIdle(t *testing.T) {
	dev := &fakeDevice{}
	timers := newTestTimers()
	s := NewScheduler(dev, timers, SchedulerConfig{})

	s.Push(testFrame())
	s.Push(testFrame())
	s.Complete()

	if s.State() != StateActive {
		t.Fatalf("expected active while frames queued, got %v", s.State())
	}

	for i := 0; i < 5; i++ {
		tick(dev, timers, 100*time.Millisecond)
	}

	if s.State() != StateIdle {
		t.Fatalf("expected idle after drain, got %v", s.State())
	}
	if timers.Active() != 0 {
		t.Errorf("expected poll cancelled, got %d timers", timers.Active())
	}

	// Next push re-initialises timing without overlapping the last run
	lastEnd := dev.plays[1].at + dev.plays[1].frame.Duration()
	s.Push(testFrame())
	if timers.Active() != 1 {
		t.Errorf("expected poll re-armed, got %d timers", timers.Active())
	}
	tick(dev, timers, 100*time.Millisecond)

	if len(dev.plays) != 3 {
		t.Fatalf("expected 3 bindings, got %d", len(dev.plays))
	}
	if dev.plays[2].at < lastEnd-epsilon {
		t.Errorf("new run at %v overlaps previous run ending %v", dev.plays[2].at, lastEnd)
	}
}

func TestSchedulerStopWithQueuedFrames(t *testing.T) {
	dev := &fakeDevice{now: 1}
	timers := newTestTimers()
	s := NewScheduler(dev, timers, SchedulerConfig{})

	for i := 0; i < 6; i++ {
		s.Push(testFrame())
	}
	if s.QueueDepth() != 5 {
		t.Fatalf("expected 5 queued frames, got %d", s.QueueDepth())
	}

	s.Stop()

	if s.QueueDepth() != 0 {
		t.Errorf("expected empty queue, got %d", s.QueueDepth())
	}
	if timers.Active() != 0 {
		t.Errorf("expected poll cancelled, got %d timers", timers.Active())
	}
	if len(dev.ramps) != 1 || dev.ramps[0].target != 0 || math.Abs(dev.ramps[0].at-1.1) > epsilon {
		t.Errorf("expected gain ramp to 0 by 1.1, got %+v", dev.ramps)
	}
	if len(dev.cancels) != 1 {
		t.Errorf("expected scheduled voices cancelled, got %v", dev.cancels)
	}

	bound := len(dev.plays)
	for i := 0; i < 10; i++ {
		tick(dev, timers, 100*time.Millisecond)
	}
	s.Push(testFrame())
	if len(dev.plays) != bound {
		t.Errorf("expected no bindings after stop, got %d more", len(dev.plays)-bound)
	}

	stats := s.Stats()
	if stats.Discarded != 6 {
		t.Errorf("expected 6 discarded, got %d", stats.Discarded)
	}

	// Stop is idempotent
	s.Stop()
	if len(dev.ramps) != 1 {
		t.Errorf("expected second stop to be a no-op, got %d ramps", len(dev.ramps))
	}
}

func TestSchedulerStartAfterStop(t *testing.T) {
	dev := &fakeDevice{}
	timers := newTestTimers()
	s := NewScheduler(dev, timers, SchedulerConfig{})

	s.Push(testFrame())
	s.Stop()
	s.Start()

	if s.State() != StateIdle {
		t.Fatalf("expected idle after start, got %v", s.State())
	}
	last := dev.ramps[len(dev.ramps)-1]
	if last.target != 1 || math.Abs(last.at-DefaultFadeOut) > epsilon {
		t.Errorf("expected unit gain restored at fade end, got %+v", last)
	}

	s.Push(testFrame())
	if len(dev.plays) != 2 {
		t.Fatalf("expected push after start to bind, got %d bindings", len(dev.plays))
	}
	if dev.plays[1].at < DefaultFadeOut-epsilon {
		t.Errorf("new audio at %v starts before fade end", dev.plays[1].at)
	}
}

func TestSchedulerStartIgnoredUnlessStopped(t *testing.T) {
	dev := &fakeDevice{}
	s := NewScheduler(dev, newTestTimers(), SchedulerConfig{})

	s.Start()
	if len(dev.ramps) != 0 {
		t.Errorf("expected no gain change, got %+v", dev.ramps)
	}
}
