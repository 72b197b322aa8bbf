// ABOUTME: Tests for the mixing timeline
// ABOUTME: Tests clock advance, voice binding, gain ramps and cancellation
package output

import (
	"encoding/binary"
	"io"
	"math"
	"testing"
	"time"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
)

var (
	_ Output = (*Timeline)(nil)
	_ Output = (*Oto)(nil)
	_ Output = (*Discard)(nil)
)

const testRate = 1000

func constFrame(n int, value float32) audio.Frame {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = value
	}
	return audio.Frame{Samples: samples, SampleRate: testRate}
}

func TestTimelineClockAdvances(t *testing.T) {
	tl := NewTimeline(testRate)
	if tl.CurrentTime() != 0 {
		t.Fatalf("expected clock at 0, got %v", tl.CurrentTime())
	}

	tl.Render(make([]float32, 500))
	if tl.CurrentTime() != 0.5 {
		t.Errorf("expected clock at 0.5, got %v", tl.CurrentTime())
	}
}

func TestTimelinePlayAtTime(t *testing.T) {
	tl := NewTimeline(testRate)
	if err := tl.Play(constFrame(10, 0.5), 0.005); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	out := make([]float32, 20)
	tl.Render(out)

	for i, s := range out {
		want := float32(0)
		if i >= 5 && i < 15 {
			want = 0.5
		}
		if s != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, s)
		}
	}
	if tl.Pending() != 0 {
		t.Errorf("expected rendered voice to be released, %d pending", tl.Pending())
	}
}

func TestTimelinePastStartClamped(t *testing.T) {
	tl := NewTimeline(testRate)
	tl.Render(make([]float32, 100))

	if err := tl.Play(constFrame(4, 0.25), 0.01); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	out := make([]float32, 4)
	tl.Render(out)
	for i, s := range out {
		if s != 0.25 {
			t.Errorf("sample %d: expected frame to start at current position, got %v", i, s)
		}
	}
}

func TestTimelineMixAndClip(t *testing.T) {
	tl := NewTimeline(testRate)
	_ = tl.Play(constFrame(4, 0.75), 0)
	_ = tl.Play(constFrame(4, 0.75), 0.002)

	out := make([]float32, 6)
	tl.Render(out)

	expected := []float32{0.75, 0.75, 1, 1, 0.75, 0.75}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("sample %d: expected %v, got %v", i, expected[i], out[i])
		}
	}
}

func TestTimelineRateMismatch(t *testing.T) {
	tl := NewTimeline(testRate)
	err := tl.Play(audio.Frame{Samples: []float32{1}, SampleRate: 24000}, 0)
	if err == nil {
		t.Error("expected error for mismatched frame rate")
	}
}

func TestTimelineRampGain(t *testing.T) {
	tl := NewTimeline(testRate)
	_ = tl.Play(constFrame(200, 1), 0)

	tl.RampGain(0, 0.1)

	out := make([]float32, 200)
	tl.Render(out)

	if out[0] != 1 {
		t.Errorf("expected full gain at ramp start, got %v", out[0])
	}
	if math.Abs(float64(out[50])-0.5) > 1e-6 {
		t.Errorf("expected half gain mid-ramp, got %v", out[50])
	}
	for i := 100; i < 200; i++ {
		if out[i] != 0 {
			t.Fatalf("sample %d: expected silence after ramp, got %v", i, out[i])
		}
	}

	// Restore unity gain immediately
	tl.RampGain(1, tl.CurrentTime())
	_ = tl.Play(constFrame(1, 0.5), tl.CurrentTime())
	one := make([]float32, 1)
	tl.Render(one)
	if one[0] != 0.5 {
		t.Errorf("expected unity gain after restore, got %v", one[0])
	}
}

func TestTimelineCancel(t *testing.T) {
	tl := NewTimeline(testRate)
	_ = tl.Play(constFrame(100, 0.5), 0)
	_ = tl.Play(constFrame(100, 0.5), 0.1)
	_ = tl.Play(constFrame(100, 0.5), 0.2)

	tl.Cancel(0.05)

	if tl.Pending() != 1 {
		t.Fatalf("expected 1 voice after cancel, got %d", tl.Pending())
	}

	out := make([]float32, 300)
	tl.Render(out)
	for i, s := range out {
		want := float32(0)
		if i < 50 {
			want = 0.5
		}
		if s != want {
			t.Fatalf("sample %d: expected %v, got %v", i, want, s)
		}
	}
}

func TestTimelineVolume(t *testing.T) {
	tests := []struct {
		name     string
		volume   int
		muted    bool
		expected float32
	}{
		{"full", 100, false, 0.5},
		{"half", 50, false, 0.25},
		{"muted", 100, true, 0},
		{"clamped high", 150, false, 0.5},
		{"clamped low", -10, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := NewTimeline(testRate)
			tl.SetVolume(tt.volume)
			tl.SetMuted(tt.muted)
			_ = tl.Play(constFrame(1, 0.5), 0)

			out := make([]float32, 1)
			tl.Render(out)
			if out[0] != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, out[0])
			}
		})
	}
}

func TestTimelineRead(t *testing.T) {
	tl := NewTimeline(testRate)
	_ = tl.Play(constFrame(2, 0.5), 0)

	p := make([]byte, 6)
	n, err := tl.Read(p)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if n != 6 {
		t.Fatalf("expected 6 bytes, got %d", n)
	}

	expected := []int16{16384, 16384, 0}
	for i, want := range expected {
		if got := int16(binary.LittleEndian.Uint16(p[i*2:])); got != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, got)
		}
	}
	if tl.CurrentTime() != 0.003 {
		t.Errorf("expected clock at 0.003, got %v", tl.CurrentTime())
	}

	_ = tl.Close()
	if _, err := tl.Read(p); err != io.EOF {
		t.Errorf("expected io.EOF after close, got %v", err)
	}
	if err := tl.Play(constFrame(1, 0), 1); err == nil {
		t.Error("expected play after close to fail")
	}
}

func TestDiscardAdvancesInRealTime(t *testing.T) {
	d := NewDiscard(testRate)
	defer d.Close()

	deadline := time.Now().Add(2 * time.Second)
	for d.CurrentTime() < 0.05 {
		if time.Now().After(deadline) {
			t.Fatal("discard output clock did not advance")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTimelineRampChained(t *testing.T) {
	tl := NewTimeline(testRate)

	// Fade out over 100 samples then step back up once the fade is done
	tl.RampGain(0, 0.1)
	tl.RampGain(1, 0.1)
	_ = tl.Play(constFrame(200, 1), 0)

	out := make([]float32, 200)
	tl.Render(out)

	if math.Abs(float64(out[50])-0.5) > 1e-6 {
		t.Errorf("expected half gain mid-fade, got %v", out[50])
	}
	if out[99] >= out[50] {
		t.Errorf("expected gain to keep falling, got %v at 99", out[99])
	}
	if out[100] != 1 || out[199] != 1 {
		t.Errorf("expected unity gain after fade, got %v and %v", out[100], out[199])
	}
}
