// ABOUTME: Test doubles for the playback pipeline
// ABOUTME: Provides a hand-clocked output device that records bindings
package player

import (
	"time"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
	"github.com/PpiNeaPpLe/livevoice/pkg/loop"
)

type binding struct {
	frame audio.Frame
	at    float64
	now   float64
}

type ramp struct {
	target float64
	at     float64
}

// fakeDevice is an output.Device whose clock only moves when told to
type fakeDevice struct {
	now     float64
	plays   []binding
	ramps   []ramp
	cancels []float64
}

func (d *fakeDevice) CurrentTime() float64 {
	return d.now
}

func (d *fakeDevice) Play(frame audio.Frame, at float64) error {
	d.plays = append(d.plays, binding{frame: frame, at: at, now: d.now})
	return nil
}

func (d *fakeDevice) RampGain(target float64, at float64) {
	d.ramps = append(d.ramps, ramp{target: target, at: at})
}

func (d *fakeDevice) Cancel(at float64) {
	d.cancels = append(d.cancels, at)
}

func newTestTimers() *loop.ManualTimers {
	return loop.NewManualTimers(time.Unix(0, 0), nil)
}

// tick moves the device clock and the poll timer forward together
func tick(d *fakeDevice, timers *loop.ManualTimers, dt time.Duration) {
	d.now += dt.Seconds()
	timers.Advance(dt)
}

func testFrame() audio.Frame {
	return audio.Frame{
		Samples:    make([]float32, audio.FrameSize),
		SampleRate: audio.OutputSampleRate,
	}
}
