// ABOUTME: Bubbletea model for the live session TUI
// ABOUTME: Defines display state and update logic
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PpiNeaPpLe/livevoice/pkg/live"
	"github.com/PpiNeaPpLe/livevoice/pkg/player"
)

// maxTranscriptLines is how much of the conversation stays on screen
const maxTranscriptLines = 4

// Model represents the TUI state
type Model struct {
	// Session
	sessionID  string
	state      live.State
	reconnects int
	sinceLast  time.Duration
	staleAfter time.Duration
	lastErr    string

	// Playback
	playback player.StreamStats
	volume   int
	muted    bool

	transcript []string

	showDebug bool
	control   *Control

	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case TranscriptMsg:
		m.addTranscript(msg.Text)
	case ErrorMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		}
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderTranscript()
	s += m.renderControls()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders connection and liveness status
func (m Model) renderHeader() string {
	liveIcon := "✗"
	liveText := "No traffic yet"
	switch {
	case m.state != live.StateOpen:
		liveText = "-"
	case m.staleAfter > 0 && m.sinceLast > m.staleAfter:
		liveText = fmt.Sprintf("Stale (%s since last message)", m.sinceLast.Round(time.Second))
	case m.staleAfter > 0 && m.sinceLast > m.staleAfter/2:
		liveIcon = "⚠"
		liveText = fmt.Sprintf("Quiet (%s since last message)", m.sinceLast.Round(time.Second))
	default:
		liveIcon = "✓"
		liveText = fmt.Sprintf("Live (%s since last message)", m.sinceLast.Round(100*time.Millisecond))
	}

	status := stateName(m.state)
	if m.reconnects > 0 {
		status = fmt.Sprintf("%s (retry %d)", status, m.reconnects)
	}

	return fmt.Sprintf(`┌─ Gemini Live ────────────────────────────────────────┐
│ Status: %-45s │
│ Link:   %s %-42s │
├──────────────────────────────────────────────────────┤
`, truncate(status, 45), liveIcon, truncate(liveText, 42))
}

// renderTranscript renders the most recent transcript lines
func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "│ (no transcript)                                      │\n"
	}

	s := "│ Model:                                               │\n"
	for _, line := range m.transcript {
		s += fmt.Sprintf("│   %-50s │\n", truncate(line, 50))
	}
	return s
}

// renderControls renders volume and playback state
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)
	queued := time.Duration(m.playback.QueueDepth) * frameDuration

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-17s │\n"+
		"│ Player: %-8s queued %dms (%d frames)%-12s │\n",
		volumeBar, m.volume, muteIcon, "",
		m.playback.State, queued.Milliseconds(), m.playback.QueueDepth, "")
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Stats:  RX: %d  Played: %d  Late: %d  Dropped: %d%-4s │
│                                                      │
`, m.playback.Received, m.playback.Scheduled, m.playback.Underruns, m.playback.Discarded, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  d:Debug  q:Quit                 │
└──────────────────────────────────────────────────────┘
`
}

func (m Model) renderDebug() string {
	errText := m.lastErr
	if errText == "" {
		errText = "none"
	}
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Session: %-41s │
│   Assembler: %d samples buffered%-18s │
│   Last error: %-38s │
`, truncate(m.sessionID, 41), m.playback.Buffered, "", truncate(errText, 38))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.control != nil {
			m.control.requestQuit()
		}
		return m, tea.Quit
	case "up":
		if m.volume < 100 {
			m.volume += 5
			if m.volume > 100 {
				m.volume = 100
			}
			m.sendVolume()
		}
	case "down":
		if m.volume > 0 {
			m.volume -= 5
			if m.volume < 0 {
				m.volume = 0
			}
			m.sendVolume()
		}
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	if m.control != nil {
		m.control.change(VolumeChangeMsg{Volume: m.volume, Muted: m.muted})
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	s := msg.Session
	if s.SessionID != "" {
		m.sessionID = s.SessionID
	}
	m.state = s.State
	m.reconnects = s.ReconnectAttempts
	m.sinceLast = s.SinceLastMessage
	m.playback = s.Playback
	if msg.StaleAfter > 0 {
		m.staleAfter = msg.StaleAfter
	}
}

func (m *Model) addTranscript(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	m.transcript = append(m.transcript, text)
	if len(m.transcript) > maxTranscriptLines {
		m.transcript = m.transcript[len(m.transcript)-maxTranscriptLines:]
	}
}

// StatusMsg updates TUI state from a session snapshot
type StatusMsg struct {
	Session    live.Status
	StaleAfter time.Duration
}

// TranscriptMsg adds a line of model text
type TranscriptMsg struct {
	Text string
}

// ErrorMsg shows the error that ended the session
type ErrorMsg struct {
	Err error
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func stateName(s live.State) string {
	switch s {
	case live.StateIdle:
		return "Idle"
	case live.StateConnecting:
		return "Connecting..."
	case live.StateOpen:
		return "Connected"
	case live.StateClosing:
		return "Closing"
	case live.StateClosed:
		return "Closed"
	}
	return s.String()
}
