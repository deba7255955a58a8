// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, polling, key handling and rendering
package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil)

	if model.state != "idle" {
		t.Errorf("expected initial state idle, got %q", model.state)
	}
	if model.showDebug {
		t.Error("expected showDebug to be false initially")
	}
	if model.Init() != nil {
		t.Error("expected no tick without a poll function")
	}
}

func TestStatusMsgDevice(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		State:      "running",
		Backend:    "malgo",
		Device:     "Speakers",
		Format:     "48000Hz 2ch s16",
		SampleRate: 48000,
	})

	if model.state != "running" {
		t.Errorf("expected state running, got %q", model.state)
	}
	if model.device != "Speakers" || model.backend != "malgo" {
		t.Errorf("unexpected device %q on %q", model.device, model.backend)
	}
	if model.sampleRate != 48000 {
		t.Errorf("expected sampleRate 48000, got %d", model.sampleRate)
	}
}

func TestStatusMsgKeepsPreviousValues(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{State: "running", Title: "song", Submitted: 100})
	model.applyStatus(StatusMsg{Submitted: 50})

	if model.state != "running" {
		t.Errorf("empty state overwrote %q", model.state)
	}
	if model.title != "song" {
		t.Errorf("empty title overwrote %q", model.title)
	}
	if model.submitted != 100 {
		t.Errorf("counter went backwards to %d", model.submitted)
	}
}

func TestStatusMsgError(t *testing.T) {
	model := NewModel(nil)
	model.applyStatus(StatusMsg{State: "silent", Err: errors.New("no default audio render device")})

	if model.lastErr != "no default audio render device" {
		t.Errorf("unexpected lastErr %q", model.lastErr)
	}

	model.width = 80
	if !strings.Contains(model.View(), "Error:  no default audio render device") {
		t.Error("view does not show the error")
	}
}

func TestTickPolls(t *testing.T) {
	polls := 0
	model := NewModel(func() StatusMsg {
		polls++
		return StatusMsg{State: "recovering", Recoveries: uint64(polls)}
	})

	if model.Init() == nil {
		t.Fatal("expected Init to schedule a tick")
	}

	updated, cmd := model.Update(tickMsg(time.Now()))
	m := updated.(Model)

	if polls != 1 {
		t.Errorf("expected 1 poll, got %d", polls)
	}
	if m.state != "recovering" || m.recoveries != 1 {
		t.Errorf("poll result not applied: state %q, recoveries %d", m.state, m.recoveries)
	}
	if cmd == nil {
		t.Error("expected the next tick to be scheduled")
	}
}

func TestKeyHandling(t *testing.T) {
	model := NewModel(nil)

	updated, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	if !updated.(Model).showDebug {
		t.Error("expected d to toggle debug on")
	}

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected q to return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected q to quit")
	}
}

func TestWindowSize(t *testing.T) {
	model := NewModel(nil)
	if model.View() != "Loading..." {
		t.Error("expected loading view before the window size is known")
	}

	updated, _ := model.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m := updated.(Model)
	if m.width != 80 || m.height != 24 {
		t.Errorf("expected 80x24, got %dx%d", m.width, m.height)
	}
}

func TestViewSections(t *testing.T) {
	model := NewModel(nil)
	model.width = 80
	model.applyStatus(StatusMsg{
		State:      "running",
		Backend:    "oto",
		Device:     "oto default output",
		Format:     "48000Hz 2ch f32",
		SampleRate: 48000,
		Title:      "Test Tone",
		Played:     96000,
		Buffered:   0.5,
		Logs:       []string{"[INF] RNDR: started"},
	})
	model.showDebug = true

	view := model.View()
	for _, want := range []string{
		"Engine: ✓ running",
		"oto default output (oto)",
		"Test Tone",
		"Time:   2s",
		"[█████░░░░░]  50%",
		"[INF] RNDR: started",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
		{150, "██████████"},
	}
	for _, tt := range tests {
		if got := renderBar(tt.value, 100, 10); got != tt.want {
			t.Errorf("renderBar(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("a very long title", 10); got != "a very ..." {
		t.Errorf("truncate long = %q", got)
	}
}
