// ABOUTME: PCM audio decoder
// ABOUTME: Decodes base64 16-bit little-endian PCM to float32 samples
package decode

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
)

// PCMDecoder decodes base64 PCM16 chunks
type PCMDecoder struct {
	sampleRate int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16)", format.BitDepth)
	}

	if format.Channels != 1 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1)", format.Channels)
	}

	return &PCMDecoder{
		sampleRate: format.SampleRate,
	}, nil
}

// SampleRate returns the rate of decoded samples
func (d *PCMDecoder) SampleRate() int {
	return d.sampleRate
}

// Decode converts a base64 chunk to float32 samples
func (d *PCMDecoder) Decode(chunk string) ([]float32, error) {
	data, err := base64.StdEncoding.DecodeString(chunk)
	if err != nil {
		return nil, &Error{Reason: "malformed base64", Err: err}
	}
	return d.DecodeBytes(data)
}

// DecodeBytes converts raw PCM16LE bytes to float32 samples
func (d *PCMDecoder) DecodeBytes(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, &Error{Reason: fmt.Sprintf("odd byte length %d", len(data))}
	}

	numSamples := len(data) / 2
	samples := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}
	return samples, nil
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
