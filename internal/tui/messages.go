package tui

import "github.com/mmcdole/imgport/internal/domain"

// Message types for the TUI. Import and gallery results are handled by
// their owners and never surface here.

// ClearStatusMsg clears the status line
type ClearStatusMsg struct {
	id int
}

// ImageOpenedMsg reports the result of launching the viewer
type ImageOpenedMsg struct {
	Name string
	Err  error
}

// HistoryLoadedMsg carries the import history, newest first
type HistoryLoadedMsg struct {
	History []domain.ImportSummary
	Err     error
}
