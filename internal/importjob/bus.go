package importjob

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/domain"
)

// Bus carries the "import completed" signal from the tracker to its single
// subscriber, normally the gallery controller.
type Bus struct {
	subscriber func(domain.ImportSummary) tea.Cmd
	published  int
}

// NewBus creates a bus with no subscriber
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe installs fn as the subscriber, replacing any previous one
func (b *Bus) Subscribe(fn func(domain.ImportSummary) tea.Cmd) {
	b.subscriber = fn
}

// Publish notifies the subscriber and returns whatever work it asks for
func (b *Bus) Publish(summary domain.ImportSummary) tea.Cmd {
	b.published++
	if b.subscriber == nil {
		return nil
	}
	return b.subscriber(summary)
}

// Published returns how many completions went through the bus
func (b *Bus) Published() int {
	return b.published
}
