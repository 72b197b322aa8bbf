// ABOUTME: Real-time output that renders and discards audio
// ABOUTME: Keeps a wall-clock driven audio clock for headless runs and tests
package output

import (
	"sync"
	"time"
)

const discardTick = 20 * time.Millisecond

// Discard renders its timeline at real-time pace without a device
type Discard struct {
	*Timeline
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewDiscard starts a discarding output clocked at sampleRate
func NewDiscard(sampleRate int) *Discard {
	d := &Discard{
		Timeline: NewTimeline(sampleRate),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Discard) run() {
	defer close(d.done)

	ticker := time.NewTicker(discardTick)
	defer ticker.Stop()

	start := time.Now()
	var rendered int64
	buf := make([]float32, 0)

	for {
		select {
		case <-d.stop:
			return
		case now := <-ticker.C:
			target := int64(now.Sub(start).Seconds() * float64(d.SampleRate()))
			n := int(target - rendered)
			if n <= 0 {
				continue
			}
			if cap(buf) < n {
				buf = make([]float32, n)
			}
			d.Render(buf[:n])
			rendered = target
		}
	}
}

// Close stops the render goroutine and drops all voices
func (d *Discard) Close() error {
	d.stopOnce.Do(func() {
		close(d.stop)
	})
	<-d.done
	return d.Timeline.Close()
}
