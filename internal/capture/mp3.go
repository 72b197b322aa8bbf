// ABOUTME: MP3 input for the capture source
// ABOUTME: Decodes MP3 and downmixes the decoder's stereo output to mono
package capture

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// NewMP3 decodes MP3 from r. The sample rate comes from the stream.
func NewMP3(r io.Reader, cfg Config) (*Source, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP3 decoder: %w", err)
	}

	cfg.SampleRate = decoder.SampleRate()
	src, err := NewPCMReader(&monoReader{r: decoder}, cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := r.(io.Closer); ok {
		src.closer = c
	}
	return src, nil
}

// monoReader averages interleaved stereo PCM16LE frames into mono PCM16LE
type monoReader struct {
	r   io.Reader
	buf []byte
}

func (m *monoReader) Read(p []byte) (int, error) {
	frames := len(p) / 2
	if frames == 0 {
		return 0, nil
	}
	if cap(m.buf) < frames*4 {
		m.buf = make([]byte, frames*4)
	}
	buf := m.buf[:frames*4]

	n, err := io.ReadAtLeast(m.r, buf, 4)
	frames = n / 4
	for i := 0; i < frames; i++ {
		left := int32(int16(binary.LittleEndian.Uint16(buf[i*4:])))
		right := int32(int16(binary.LittleEndian.Uint16(buf[i*4+2:])))
		binary.LittleEndian.PutUint16(p[i*2:], uint16(int16((left+right)/2)))
	}
	if err == io.ErrUnexpectedEOF {
		err = nil
		if frames == 0 {
			err = io.EOF
		}
	}
	return frames * 2, err
}
