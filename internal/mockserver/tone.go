// ABOUTME: Sine tone generator for the mock service
// ABOUTME: Produces mono PCM16LE so replies sound like speech audio
package mockserver

import (
	"encoding/binary"
	"math"
)

// tone generates a continuous sine wave at half volume
type tone struct {
	frequency   float64
	sampleRate  int
	sampleIndex uint64
}

func newTone(frequency float64, sampleRate int) *tone {
	return &tone{frequency: frequency, sampleRate: sampleRate}
}

// next returns n samples continuing the waveform from the previous call
func (t *tone) next(n int) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		x := float64(t.sampleIndex+uint64(i)) / float64(t.sampleRate)
		sample := math.Sin(2 * math.Pi * t.frequency * x)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(sample*32767.0*0.5)))
	}
	t.sampleIndex += uint64(n)
	return out
}
