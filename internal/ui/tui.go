// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for player UI
package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a new TUI model polling poll for status
func NewModel(poll PollFunc) Model {
	return Model{
		poll:  poll,
		state: "idle",
	}
}

// Run shows the TUI until the user quits or ctx is done
func Run(ctx context.Context, poll PollFunc) error {
	p := tea.NewProgram(NewModel(poll), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
