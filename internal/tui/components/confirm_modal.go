package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/imgport/internal/tui/styles"
)

// ConfirmModal asks a yes/no question about one target
type ConfirmModal struct {
	visible  bool
	title    string
	targetID string
}

// Show displays the modal for targetID
func (m *ConfirmModal) Show(title, targetID string) {
	m.visible = true
	m.title = title
	m.targetID = targetID
}

// Hide dismisses the modal
func (m *ConfirmModal) Hide() {
	m.visible = false
	m.targetID = ""
}

// IsVisible returns whether the modal is shown
func (m ConfirmModal) IsVisible() bool {
	return m.visible
}

// TargetID returns what the question is about
func (m ConfirmModal) TargetID() string {
	return m.targetID
}

// View renders the modal centered in width x height
func (m ConfirmModal) View(width, height int) string {
	if !m.visible {
		return ""
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render(m.title),
		styles.DimStyle.Render("y confirm · n cancel"),
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, styles.ModalStyle.Render(content))
}
