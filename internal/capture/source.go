// ABOUTME: Captured audio sources feeding the outbound path
// ABOUTME: Reads raw PCM16 or MP3 input and paces it like a live microphone
package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
)

// DefaultChunk is the amount of audio returned by each Read
const DefaultChunk = 100 * time.Millisecond

// Config controls how a Source delivers audio
type Config struct {
	// SampleRate of raw PCM input. Ignored for MP3 input.
	SampleRate int
	// Chunk is the duration of audio per Read
	Chunk time.Duration
	// Unpaced delivers audio as fast as it can be read
	Unpaced bool
}

// Source delivers mono float samples in fixed-duration chunks. It satisfies
// live.Source.
type Source struct {
	r          io.Reader
	closer     io.Closer
	sampleRate int
	chunkBytes int
	paced      bool

	buf     []byte
	start   time.Time
	elapsed time.Duration
	eof     bool
}

// NewPCMReader reads mono PCM16LE from r
func NewPCMReader(r io.Reader, cfg Config) (*Source, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", cfg.SampleRate)
	}
	if cfg.Chunk <= 0 {
		cfg.Chunk = DefaultChunk
	}

	samples := int(int64(cfg.SampleRate) * int64(cfg.Chunk) / int64(time.Second))
	if samples < 1 {
		samples = 1
	}

	s := &Source{
		r:          r,
		sampleRate: cfg.SampleRate,
		chunkBytes: samples * 2,
		paced:      !cfg.Unpaced,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	s.buf = make([]byte, s.chunkBytes)
	return s, nil
}

// Open creates a source from a file path, "-" for stdin, or an HTTP(S)
// URL. Paths ending in .mp3 and all URLs are decoded as MP3; anything else
// is raw mono PCM16LE at cfg.SampleRate.
func Open(pathOrURL string, cfg Config) (*Source, error) {
	if pathOrURL == "-" {
		log.Printf("Capturing raw PCM from stdin at %d Hz", cfg.SampleRate)
		return NewPCMReader(io.NopCloser(os.Stdin), cfg)
	}

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		log.Printf("Capturing MP3 from URL: %s", pathOrURL)
		resp, err := http.Get(pathOrURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", pathOrURL, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("failed to fetch %s: %s", pathOrURL, resp.Status)
		}
		src, err := NewMP3(resp.Body, cfg)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		return src, nil
	}

	f, err := os.Open(pathOrURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture input: %w", err)
	}

	var src *Source
	if strings.ToLower(filepath.Ext(pathOrURL)) == ".mp3" {
		log.Printf("Capturing MP3 file: %s", pathOrURL)
		src, err = NewMP3(f, cfg)
	} else {
		log.Printf("Capturing raw PCM file: %s at %d Hz", pathOrURL, cfg.SampleRate)
		src, err = NewPCMReader(f, cfg)
	}
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// SampleRate returns the rate of the delivered samples
func (s *Source) SampleRate() int {
	return s.sampleRate
}

// Read returns the next chunk. When paced, it blocks until the chunk would
// have been captured by a live microphone. The final chunk may be short;
// after it Read returns io.EOF.
func (s *Source) Read(ctx context.Context) ([]float32, error) {
	if s.eof {
		return nil, io.EOF
	}

	n, err := io.ReadFull(s.r, s.buf)
	switch {
	case errors.Is(err, io.EOF):
		s.eof = true
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
	case err != nil:
		return nil, fmt.Errorf("capture read failed: %w", err)
	}

	count := n / 2
	if count == 0 {
		return nil, io.EOF
	}

	if s.paced {
		if err := s.pace(ctx, count); err != nil {
			return nil, err
		}
	}

	samples := make([]float32, count)
	for i := range samples {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(s.buf[i*2:])))
	}
	return samples, nil
}

// pace waits until the wall clock has caught up with the audio delivered
// so far, including this chunk.
func (s *Source) pace(ctx context.Context, count int) error {
	if s.start.IsZero() {
		s.start = time.Now()
	}
	s.elapsed += time.Duration(int64(count) * int64(time.Second) / int64(s.sampleRate))

	wait := time.Until(s.start.Add(s.elapsed))
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases the underlying input
func (s *Source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
