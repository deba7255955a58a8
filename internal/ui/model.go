// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Defines render status state and update logic
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/resonate-render/internal/version"
	tea "github.com/charmbracelet/bubbletea"
)

// RefreshInterval is how often the model polls for status
const RefreshInterval = 250 * time.Millisecond

// PollFunc returns the latest status
type PollFunc func() StatusMsg

// Model represents the TUI state
type Model struct {
	poll PollFunc

	// Device
	state      string
	backend    string
	device     string
	format     string
	sampleRate int
	lastErr    string

	// Source
	title    string
	played   uint64
	buffered float64

	// Stats
	submitted  uint64
	underruns  uint64
	skipped    uint64
	recoveries uint64

	// Debug
	showDebug bool
	logs      []string

	// Dimensions
	width  int
	height int
}

// StatusMsg updates TUI state
type StatusMsg struct {
	State      string
	Backend    string
	Device     string
	Format     string
	SampleRate int
	Err        error

	Title    string
	Played   uint64
	Buffered float64

	Submitted  uint64
	Underruns  uint64
	Skipped    uint64
	Recoveries uint64

	Logs []string
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	if m.poll == nil {
		return nil
	}
	return tick()
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
	case tickMsg:
		if m.poll != nil {
			m.applyStatus(m.poll())
			return m, tick()
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
	s += m.renderSource()
	s += m.renderStats()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders engine and device status
func (m Model) renderHeader() string {
	stateIcon := "✗"
	switch m.state {
	case "running":
		stateIcon = "✓"
	case "starting", "recovering":
		stateIcon = "⚠"
	}

	device := "No device"
	if m.device != "" {
		device = fmt.Sprintf("%s (%s)", m.device, m.backend)
	}

	format := "-"
	if m.format != "" {
		format = m.format
	}

	s := fmt.Sprintf(`┌─ %-50s ─┐
│ Engine: %s %-42s │
│ Device: %-44s │
│ Format: %-44s │
`, version.String()+" ", stateIcon, m.state, truncate(device, 44), truncate(format, 44))

	if m.lastErr != "" {
		s += fmt.Sprintf("│ Error:  %-44s │\n", truncate(m.lastErr, 44))
	}
	s += "├──────────────────────────────────────────────────────┤\n"
	return s
}

// renderSource renders the producer and its buffer
func (m Model) renderSource() string {
	if m.title == "" {
		return "│ No source                                            │\n"
	}

	pct := int(m.buffered*100 + 0.5)
	s := "│ Now Playing:                                         │\n"
	s += fmt.Sprintf("│   %-50s │\n", truncate(m.title, 50))
	s += fmt.Sprintf("│   Time:   %-42s │\n", playedTime(m.played, m.sampleRate))
	s += fmt.Sprintf("│ Buffer: [%s] %3d%%%-27s │\n", renderBar(pct, 100, 10), pct, "")
	return s
}

// renderStats renders render loop statistics
func (m Model) renderStats() string {
	line := fmt.Sprintf("Frames: %d  Underruns: %d  Skipped: %d  Recoveries: %d",
		m.submitted, m.underruns, m.skipped, m.recoveries)
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ %-52s │
│                                                      │
`, truncate(line, 52))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                      │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders the log tail
func (m Model) renderDebug() string {
	s := "│ DEBUG:                                               │\n"
	for _, line := range m.logs {
		s += fmt.Sprintf("│   %-50s │\n", truncate(line, 50))
	}
	return s
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.State != "" {
		m.state = msg.State
	}
	if msg.Backend != "" {
		m.backend = msg.Backend
	}
	if msg.Device != "" {
		m.device = msg.Device
	}
	if msg.Format != "" {
		m.format = msg.Format
		m.sampleRate = msg.SampleRate
	}
	if msg.Err != nil {
		m.lastErr = msg.Err.Error()
	}
	if msg.Title != "" {
		m.title = msg.Title
	}
	m.played = max(m.played, msg.Played)
	m.buffered = msg.Buffered
	m.submitted = max(m.submitted, msg.Submitted)
	m.underruns = max(m.underruns, msg.Underruns)
	m.skipped = max(m.skipped, msg.Skipped)
	m.recoveries = max(m.recoveries, msg.Recoveries)
	if msg.Logs != nil {
		m.logs = msg.Logs
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func playedTime(frames uint64, sampleRate int) string {
	if sampleRate <= 0 {
		return "-"
	}
	d := time.Duration(frames) * time.Second / time.Duration(sampleRate)
	return d.Truncate(time.Second).String()
}
