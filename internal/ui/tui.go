// ABOUTME: TUI initialization and control
// ABOUTME: Runs the bubbletea program and tears playback down on exit
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the TUI and blocks until the user quits
func Run(opts Options) error {
	m := NewModel(opts)
	defer m.Deck().Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
