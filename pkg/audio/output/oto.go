// ABOUTME: Oto-based audio output implementation
// ABOUTME: Pulls mixed PCM from a Timeline into the hardware device via oto
package output

import (
	"fmt"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	*Timeline
	otoCtx *oto.Context
	player *oto.Player
}

// NewOto opens the default device as a mono 16-bit stream at sampleRate.
// bufferSize bounds how far the hardware reads ahead of the audible
// position; zero lets oto choose.
func NewOto(sampleRate int, bufferSize time.Duration) (*Oto, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   bufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	timeline := NewTimeline(sampleRate)

	// Persistent player that pulls from the timeline for the life of the output
	player := ctx.NewPlayer(timeline)
	player.Play()

	log.Printf("Audio output initialized: %dHz, 1 channel", sampleRate)

	return &Oto{
		Timeline: timeline,
		otoCtx:   ctx,
		player:   player,
	}, nil
}

// Close releases output resources
func (o *Oto) Close() error {
	if err := o.Timeline.Close(); err != nil {
		return err
	}
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Error closing player: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			return fmt.Errorf("failed to suspend audio context: %w", err)
		}
	}
	return nil
}
