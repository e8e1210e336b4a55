package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// statusTimeout is how long a status message stays visible
const statusTimeout = 4 * time.Second

// ClearStatusCmd returns a command that clears status id after a delay.
// A newer status gets a new id, so it is not cleared early.
func ClearStatusCmd(id int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{id: id}
	})
}

// OpenImageCmd launches the viewer off the update loop
func OpenImageCmd(viewer Opener, name, location string) tea.Cmd {
	return func() tea.Msg {
		return ImageOpenedMsg{Name: name, Err: viewer.Open(location)}
	}
}

// LoadHistoryCmd reads the import history off the update loop
func LoadHistoryCmd(src HistorySource) tea.Cmd {
	return func() tea.Msg {
		history, err := src.ImportHistory()
		return HistoryLoadedMsg{History: history, Err: err}
	}
}
