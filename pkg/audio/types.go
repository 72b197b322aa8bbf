// ABOUTME: Audio type definitions
// ABOUTME: Defines playback frames, stream constants and PCM16 sample conversion
package audio

import (
	"fmt"
	"strings"
)

const (
	// FrameSize is the number of samples in one playback frame
	FrameSize = 7680

	// OutputSampleRate is the rate of synthesized speech from the service
	OutputSampleRate = 24000

	// CaptureSampleRate is the default rate microphone audio is sent at
	CaptureSampleRate = 48000

	// PCM16 full-scale value
	pcm16Scale = 32768.0
	maxInt16   = 32767
	minInt16   = -32768

	pcmMimePrefix = "audio/pcm"
)

// Format describes a mono PCM stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frame is a fixed-length block of normalized samples scheduled as one unit
type Frame struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the frame length in seconds
func (f Frame) Duration() float64 {
	if f.SampleRate <= 0 {
		return 0
	}
	return float64(len(f.Samples)) / float64(f.SampleRate)
}

// SampleFromInt16 converts a PCM16 sample to the [-1, 1) float range
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / pcm16Scale
}

// SampleToInt16 clamps a float sample to [-1, 1] and scales it to PCM16
func SampleToInt16(sample float32) int16 {
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}

	scaled := float64(sample) * pcm16Scale
	if scaled > maxInt16 {
		return maxInt16
	}
	if scaled < minInt16 {
		return minInt16
	}
	return int16(scaled)
}

// PCMMimeType returns the wire MIME type for PCM16 audio at rate
func PCMMimeType(rate int) string {
	return fmt.Sprintf("%s;rate=%d", pcmMimePrefix, rate)
}

// IsPCMMimeType reports whether mimeType tags PCM audio
func IsPCMMimeType(mimeType string) bool {
	return strings.HasPrefix(mimeType, pcmMimePrefix)
}
