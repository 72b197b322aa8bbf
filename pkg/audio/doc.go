// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Frame, Format and PCM16 sample conversion functions
// Package audio provides the audio types shared by the codec, player and
// output packages.
//
// This package defines:
//   - Frame: a fixed-length block of normalized float samples with its rate
//   - Format: the description of a PCM stream
//
// And the PCM16 conversions used on the wire:
//   - SampleFromInt16: int16 → float32 in [-1, 1)
//   - SampleToInt16: float32 → int16 with clamping
//
// Example:
//
//	frame := audio.Frame{
//	    Samples:    samples[:audio.FrameSize],
//	    SampleRate: audio.OutputSampleRate,
//	}
//	fmt.Println(frame.Duration()) // 0.32
package audio
