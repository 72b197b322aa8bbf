// ABOUTME: Lookahead playback scheduler
// ABOUTME: Binds queued frames to the audio clock slightly ahead of real time
package player

import (
	"fmt"
	"log"
	"time"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
	"github.com/PpiNeaPpLe/livevoice/pkg/audio/output"
	"github.com/PpiNeaPpLe/livevoice/pkg/loop"
)

const (
	// DefaultStartDelay is the headroom before the first frame of a run
	DefaultStartDelay = 0.1

	// DefaultLookahead is how far ahead of the clock frames are bound
	DefaultLookahead = 0.2

	// DefaultPollInterval is how often the queue is re-checked
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultFadeOut is the gain ramp length applied on stop
	DefaultFadeOut = 0.1
)

// State is the scheduler lifecycle state
type State int

const (
	StateIdle State = iota
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// SchedulerConfig tunes scheduling. Zero fields take the defaults; times are
// seconds on the device clock.
type SchedulerConfig struct {
	StartDelay   float64
	Lookahead    float64
	PollInterval time.Duration
	FadeOut      float64
}

func (c SchedulerConfig) withDefaults() SchedulerConfig {
	if c.StartDelay <= 0 {
		c.StartDelay = DefaultStartDelay
	}
	if c.Lookahead <= 0 {
		c.Lookahead = DefaultLookahead
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.FadeOut <= 0 {
		c.FadeOut = DefaultFadeOut
	}
	return c
}

// SchedulerStats tracks scheduler metrics
type SchedulerStats struct {
	Received  int64
	Scheduled int64
	Discarded int64
	Underruns int64
}

// Scheduler drains a FIFO of frames onto an output device. It is not safe
// for concurrent use; callers and timers must share one goroutine.
type Scheduler struct {
	device output.Device
	timers loop.Timers
	cfg    SchedulerConfig

	state         State
	queue         []audio.Frame
	scheduledTime float64
	complete      bool
	fadeEnd       float64
	poll          loop.Repeater

	stats SchedulerStats
}

// NewScheduler creates a playback scheduler
func NewScheduler(device output.Device, timers loop.Timers, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		device: device,
		timers: timers,
		cfg:    cfg.withDefaults(),
	}
}

// Push adds a frame to the queue
func (s *Scheduler) Push(frame audio.Frame) {
	s.stats.Received++

	switch s.state {
	case StateStopped:
		s.stats.Discarded++
		return

	case StateIdle:
		s.queue = append(s.queue, frame)
		s.complete = false
		// Never start over the tail of the previous run
		s.scheduledTime = max(s.device.CurrentTime()+s.cfg.StartDelay, s.scheduledTime)
		s.state = StateActive

		if s.stats.Received <= 1 {
			log.Printf("Playback started: first frame at %.3fs", s.scheduledTime)
		}

		s.schedule()
		if s.state == StateActive {
			s.arm()
		}

	case StateActive:
		s.queue = append(s.queue, frame)
		s.complete = false
	}
}

// schedule binds every queued frame whose start falls inside the lookahead window
func (s *Scheduler) schedule() {
	for len(s.queue) > 0 {
		now := s.device.CurrentTime()
		if s.scheduledTime >= now+s.cfg.Lookahead {
			break
		}

		frame := s.queue[0]
		s.queue[0] = audio.Frame{}
		s.queue = s.queue[1:]

		start := s.scheduledTime
		if start < now {
			s.stats.Underruns++
			log.Printf("Playback underrun: %.1fms late", (now-start)*1000)
			start = now
		}

		if err := s.device.Play(frame, start); err != nil {
			log.Printf("Failed to play frame: %v", err)
			s.stats.Discarded++
			continue
		}

		s.stats.Scheduled++
		s.scheduledTime = start + frame.Duration()
	}

	if len(s.queue) == 0 && s.complete {
		s.disarm()
		s.state = StateIdle
	}
}

func (s *Scheduler) arm() {
	s.disarm()
	s.poll = s.timers.Every(s.cfg.PollInterval, s.schedule)
}

func (s *Scheduler) disarm() {
	if s.poll != nil {
		s.poll.Stop()
		s.poll = nil
	}
}

// Complete marks the end of the current run. The poll stops once the queue
// drains and the next Push restarts timing.
func (s *Scheduler) Complete() {
	if s.state == StateStopped {
		return
	}
	s.complete = true
	if s.state == StateActive && len(s.queue) == 0 {
		s.disarm()
		s.state = StateIdle
	}
}

// Stop discards queued frames and fades the device out. Frames pushed
// afterwards are discarded until Start.
func (s *Scheduler) Stop() {
	if s.state == StateStopped {
		return
	}

	s.complete = true
	s.stats.Discarded += int64(len(s.queue))
	clear(s.queue)
	s.queue = s.queue[:0]
	s.disarm()
	s.state = StateStopped
	s.scheduledTime = 0

	now := s.device.CurrentTime()
	s.fadeEnd = now + s.cfg.FadeOut
	s.device.RampGain(0, s.fadeEnd)
	s.device.Cancel(s.fadeEnd)
}

// Start leaves the stopped state and restores unit gain once the stop fade ends
func (s *Scheduler) Start() {
	if s.state != StateStopped {
		return
	}
	s.state = StateIdle
	s.complete = false
	s.device.RampGain(1, s.fadeEnd)
}

// State returns the current scheduler state
func (s *Scheduler) State() State {
	return s.state
}

// QueueDepth returns the number of frames waiting to be bound
func (s *Scheduler) QueueDepth() int {
	return len(s.queue)
}

// Stats returns scheduler statistics
func (s *Scheduler) Stats() SchedulerStats {
	return s.stats
}
