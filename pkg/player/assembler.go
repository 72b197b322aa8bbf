// ABOUTME: Frame assembler for decoded sample streams
// ABOUTME: Re-chunks arbitrary-length sample runs into fixed-size playback frames
package player

import "github.com/PpiNeaPpLe/livevoice/pkg/audio"

// Assembler accumulates samples and slices them into fixed-size frames.
// Samples leave in the order they arrived.
type Assembler struct {
	frameSize  int
	sampleRate int
	buf        []float32
}

// NewAssembler creates an assembler emitting frameSize-sample frames at sampleRate
func NewAssembler(frameSize, sampleRate int) *Assembler {
	return &Assembler{
		frameSize:  frameSize,
		sampleRate: sampleRate,
		buf:        make([]float32, 0, frameSize*2),
	}
}

// Ingest appends samples to the buffer
func (a *Assembler) Ingest(samples []float32) {
	a.buf = append(a.buf, samples...)
}

// Drain returns every complete frame available. Fewer than frameSize samples
// remain buffered afterwards.
func (a *Assembler) Drain() []audio.Frame {
	n := len(a.buf) / a.frameSize
	if n == 0 {
		return nil
	}

	frames := make([]audio.Frame, 0, n)
	for i := 0; i < n; i++ {
		samples := make([]float32, a.frameSize)
		copy(samples, a.buf[i*a.frameSize:])
		frames = append(frames, audio.Frame{Samples: samples, SampleRate: a.sampleRate})
	}

	remainder := copy(a.buf, a.buf[n*a.frameSize:])
	a.buf = a.buf[:remainder]
	return frames
}

// Flush returns the buffered remainder as a short final frame so the next
// run is not delayed by trailing silence. Returns false when nothing is
// buffered.
func (a *Assembler) Flush() (audio.Frame, bool) {
	if len(a.buf) == 0 {
		return audio.Frame{}, false
	}

	samples := make([]float32, len(a.buf))
	copy(samples, a.buf)
	a.buf = a.buf[:0]
	return audio.Frame{Samples: samples, SampleRate: a.sampleRate}, true
}

// Buffered returns the number of samples waiting for a full frame
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

// Reset discards the buffered remainder
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
}
