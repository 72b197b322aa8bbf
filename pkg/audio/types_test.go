// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion functions and frame helpers
package audio

import (
	"math"
	"testing"
)

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected float32
	}{
		{"zero", 0, 0},
		{"half", 16384, 0.5},
		{"negative half", -16384, -0.5},
		{"max", 32767, 32767.0 / 32768.0},
		{"min", -32768, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int16
	}{
		{"zero", 0, 0},
		{"half", 0.5, 16384},
		{"full scale clamps", 1, 32767},
		{"over range clamps", 3.5, 32767},
		{"negative full scale", -1, -32768},
		{"under range clamps", -2, -32768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleRoundTrip(t *testing.T) {
	for _, s := range []int16{-32768, -12345, -1, 0, 1, 255, 12345, 32767} {
		if got := SampleToInt16(SampleFromInt16(s)); got != s {
			t.Errorf("round trip of %d gave %d", s, got)
		}
	}
}

func TestFrameDuration(t *testing.T) {
	frame := Frame{Samples: make([]float32, FrameSize), SampleRate: OutputSampleRate}
	if d := frame.Duration(); math.Abs(d-0.32) > 1e-9 {
		t.Errorf("expected 0.32s, got %v", d)
	}

	if d := (Frame{Samples: make([]float32, 10)}).Duration(); d != 0 {
		t.Errorf("expected 0 for unknown rate, got %v", d)
	}
}

func TestPCMMimeType(t *testing.T) {
	if got := PCMMimeType(48000); got != "audio/pcm;rate=48000" {
		t.Errorf("unexpected mime type %q", got)
	}
	if !IsPCMMimeType("audio/pcm;rate=24000") {
		t.Error("expected audio/pcm;rate=24000 to be PCM")
	}
	if IsPCMMimeType("image/jpeg") {
		t.Error("expected image/jpeg not to be PCM")
	}
}
