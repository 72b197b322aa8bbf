// ABOUTME: Sample-accurate mixing timeline backing every output backend
// ABOUTME: Counts rendered samples as the audio clock and mixes scheduled voices
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"math"
	"sync"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
)

type gainPoint struct {
	pos   int64
	value float64
}

type voice struct {
	start   int64
	end     int64
	samples []float32
}

// Timeline mixes frames bound to absolute sample positions. The number of
// samples rendered so far is the clock.
type Timeline struct {
	mu         sync.Mutex
	sampleRate int
	position   int64
	voices     []*voice
	scratch    []float32

	// gain envelope; gain[0] is the value in effect before the first ramp
	gain []gainPoint

	volume int
	muted  bool
	closed bool
}

// NewTimeline creates a timeline clocked at sampleRate
func NewTimeline(sampleRate int) *Timeline {
	return &Timeline{
		sampleRate: sampleRate,
		gain:       []gainPoint{{pos: 0, value: 1}},
		volume:     100,
	}
}

// SampleRate returns the timeline rate
func (t *Timeline) SampleRate() int {
	return t.sampleRate
}

// CurrentTime returns the rendered position in seconds
func (t *Timeline) CurrentTime() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return float64(t.position) / float64(t.sampleRate)
}

// Play binds frame to start at clock time at. A start already in the past is
// moved to the current position.
func (t *Timeline) Play(frame audio.Frame, at float64) error {
	if frame.SampleRate != t.sampleRate {
		return fmt.Errorf("frame rate %d does not match output rate %d", frame.SampleRate, t.sampleRate)
	}
	if len(frame.Samples) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fmt.Errorf("output closed")
	}

	start := t.toSamples(at)
	if start < t.position {
		start = t.position
	}
	t.voices = append(t.voices, &voice{
		start:   start,
		end:     start + int64(len(frame.Samples)),
		samples: frame.Samples,
	})
	return nil
}

// RampGain moves the master gain to target, arriving at clock time at. When
// an earlier ramp is still in progress the new one starts where it ends.
func (t *Timeline) RampGain(target float64, at float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	last := t.gain[len(t.gain)-1]
	if last.pos <= t.position {
		t.gain = append(t.gain[:0], gainPoint{pos: t.position, value: t.gainAt(t.position)})
		last = t.gain[0]
	}
	end := max(t.toSamples(at), last.pos)
	t.gain = append(t.gain, gainPoint{pos: end, value: target})
}

// Cancel removes voices starting at or after clock time at and truncates
// voices still sounding at that time
func (t *Timeline) Cancel(at float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := max(t.toSamples(at), t.position)
	kept := t.voices[:0]
	for _, v := range t.voices {
		if v.start >= cutoff {
			continue
		}
		if v.end > cutoff {
			v.end = cutoff
		}
		kept = append(kept, v)
	}
	clear(t.voices[len(kept):])
	t.voices = kept
}

// Pending returns the number of voices not yet fully rendered
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.voices)
}

// Render mixes the next len(out) samples into out and advances the clock
func (t *Timeline) Render(out []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.render(out)
}

func (t *Timeline) render(out []float32) {
	clear(out)
	from := t.position
	to := from + int64(len(out))

	for _, v := range t.voices {
		lo := max(v.start, from)
		hi := min(v.end, to)
		for pos := lo; pos < hi; pos++ {
			out[pos-from] += v.samples[pos-v.start]
		}
	}

	multiplier := getVolumeMultiplier(t.volume, t.muted)
	for i := range out {
		gain := t.gainAt(from+int64(i)) * multiplier
		out[i] = clampSample(float32(float64(out[i]) * gain))
	}

	t.position = to

	for len(t.gain) > 1 && t.gain[1].pos <= t.position {
		t.gain = t.gain[1:]
	}

	kept := t.voices[:0]
	for _, v := range t.voices {
		if v.end > t.position {
			kept = append(kept, v)
		}
	}
	clear(t.voices[len(kept):])
	t.voices = kept
}

// Read renders PCM16LE bytes for a pull-based backend
func (t *Timeline) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, io.EOF
	}

	n := len(p) / 2
	if cap(t.scratch) < n {
		t.scratch = make([]float32, n)
	}
	buf := t.scratch[:n]
	t.render(buf)

	for i, s := range buf {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(audio.SampleToInt16(s)))
	}
	return n * 2, nil
}

// SetVolume sets the volume (0-100)
func (t *Timeline) SetVolume(volume int) {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	t.mu.Lock()
	t.volume = volume
	t.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (t *Timeline) SetMuted(muted bool) {
	t.mu.Lock()
	t.muted = muted
	t.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// Volume returns current volume
func (t *Timeline) Volume() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// Muted returns mute state
func (t *Timeline) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.muted
}

// Close drops all voices; further reads return io.EOF
func (t *Timeline) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.voices = nil
	return nil
}

func (t *Timeline) toSamples(seconds float64) int64 {
	return int64(math.Round(seconds * float64(t.sampleRate)))
}

func (t *Timeline) gainAt(pos int64) float64 {
	i := len(t.gain) - 1
	for i > 0 && t.gain[i].pos > pos {
		i--
	}
	from := t.gain[i]
	if from.pos > pos || i == len(t.gain)-1 {
		return from.value
	}
	to := t.gain[i+1]
	frac := float64(pos-from.pos) / float64(to.pos-from.pos)
	return from.value + (to.value-from.value)*frac
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}

func clampSample(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
