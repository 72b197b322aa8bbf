// ABOUTME: PCM audio encoder
// ABOUTME: Encodes float32 samples to base64 16-bit little-endian PCM
package encode

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
)

// PCMEncoder encodes PCM16 chunks
type PCMEncoder struct {
	sampleRate int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (*PCMEncoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}

	return &PCMEncoder{
		sampleRate: format.SampleRate,
	}, nil
}

// MimeType returns the wire MIME type tagging chunks from this encoder
func (e *PCMEncoder) MimeType() string {
	return audio.PCMMimeType(e.sampleRate)
}

// Encode converts float32 samples to a base64 chunk
func (e *PCMEncoder) Encode(samples []float32) string {
	return base64.StdEncoding.EncodeToString(e.EncodeBytes(samples))
}

// EncodeBytes converts float32 samples to raw PCM16LE bytes
func (e *PCMEncoder) EncodeBytes(samples []float32) []byte {
	output := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*2:], uint16(audio.SampleToInt16(sample)))
	}
	return output
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}
