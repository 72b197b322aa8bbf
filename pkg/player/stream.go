// ABOUTME: Playback stream gluing decoder, assembler and scheduler
// ABOUTME: Accepts encoded chunks and turns them into scheduled frames
package player

import (
	"fmt"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
	"github.com/PpiNeaPpLe/livevoice/pkg/audio/decode"
	"github.com/PpiNeaPpLe/livevoice/pkg/audio/output"
	"github.com/PpiNeaPpLe/livevoice/pkg/loop"
)

// StreamConfig holds stream configuration
type StreamConfig struct {
	SampleRate int
	FrameSize  int
	Scheduler  SchedulerConfig
}

// StreamStats is a point-in-time view of the pipeline
type StreamStats struct {
	SchedulerStats
	State      State
	QueueDepth int
	Buffered   int
}

// Stream decodes chunks into frames and hands them to the scheduler.
// Like Scheduler it must be driven from a single goroutine.
type Stream struct {
	decoder   decode.Decoder
	assembler *Assembler
	scheduler *Scheduler
}

// NewStream creates a stream playing on device
func NewStream(device output.Device, timers loop.Timers, cfg StreamConfig) (*Stream, error) {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = audio.OutputSampleRate
	}
	if cfg.FrameSize == 0 {
		cfg.FrameSize = audio.FrameSize
	}

	decoder, err := decode.NewPCM(audio.Format{
		Codec:      "pcm",
		SampleRate: cfg.SampleRate,
		Channels:   1,
		BitDepth:   16,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	return &Stream{
		decoder:   decoder,
		assembler: NewAssembler(cfg.FrameSize, cfg.SampleRate),
		scheduler: NewScheduler(device, timers, cfg.Scheduler),
	}, nil
}

// AddChunk decodes a base64 PCM16 chunk and queues the resulting frames.
// A malformed chunk is returned as *decode.Error and leaves the stream intact.
func (s *Stream) AddChunk(chunk string) error {
	samples, err := s.decoder.Decode(chunk)
	if err != nil {
		return err
	}
	s.Ingest(samples)
	return nil
}

// Ingest queues decoded samples. Samples are dropped while stopped.
func (s *Stream) Ingest(samples []float32) {
	if s.scheduler.State() == StateStopped {
		return
	}
	s.assembler.Ingest(samples)
	for _, frame := range s.assembler.Drain() {
		s.scheduler.Push(frame)
	}
}

// Complete flushes the partial frame and marks the end of the turn
func (s *Stream) Complete() {
	if s.scheduler.State() == StateStopped {
		return
	}
	if frame, ok := s.assembler.Flush(); ok {
		s.scheduler.Push(frame)
	}
	s.scheduler.Complete()
}

// Stop silences playback and drops everything buffered
func (s *Stream) Stop() {
	s.scheduler.Stop()
	s.assembler.Reset()
}

// Start resumes accepting audio after Stop
func (s *Stream) Start() {
	s.scheduler.Start()
}

// Interrupt drops queued audio but keeps the stream accepting new chunks
func (s *Stream) Interrupt() {
	s.Stop()
	s.Start()
}

// Stats returns a snapshot of the pipeline
func (s *Stream) Stats() StreamStats {
	return StreamStats{
		SchedulerStats: s.scheduler.Stats(),
		State:          s.scheduler.State(),
		QueueDepth:     s.scheduler.QueueDepth(),
		Buffered:       s.assembler.Buffered(),
	}
}
