// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels it reports through
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PpiNeaPpLe/livevoice/pkg/audio"
)

// frameDuration is the playback length of one queued frame
var frameDuration = time.Duration(audio.FrameSize) * time.Second / audio.OutputSampleRate

// VolumeChangeMsg is a volume or mute change made from the keyboard
type VolumeChangeMsg struct {
	Volume int
	Muted  bool
}

// Control carries user requests out of the TUI
type Control struct {
	Changes chan VolumeChangeMsg
	Quit    chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Changes: make(chan VolumeChangeMsg, 10),
		Quit:    make(chan struct{}, 1),
	}
}

// change drops the update if nobody is keeping up
func (c *Control) change(msg VolumeChangeMsg) {
	select {
	case c.Changes <- msg:
	default:
	}
}

func (c *Control) requestQuit() {
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control, volume int) Model {
	return Model{
		volume:  volume,
		control: ctrl,
	}
}

// Run creates the TUI program. The caller runs it.
func Run(ctrl *Control, volume int) *tea.Program {
	return tea.NewProgram(NewModel(ctrl, volume), tea.WithAltScreen())
}
