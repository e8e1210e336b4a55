package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/imgport/internal/tui/components"
	"github.com/mmcdole/imgport/internal/tui/styles"
)

// Layout proportions
const (
	ListColumnPercent = 60
	MinColumnWidth    = 24

	// Footer: page indicator line plus help line
	FooterHeight = 2
)

func (m *Model) updateLayout() {
	m.Form.SetWidth(m.Width)
	m.Help.Width = m.Width
}

// View renders the whole screen
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	top := []string{m.renderHeader(), m.renderImportForm(), m.renderStats()}
	if m.ShowHistory {
		top = append(top, components.RenderHistory(m.History, m.HistoryErr, m.Width, historyRows))
	}
	header := lipgloss.JoinVertical(lipgloss.Left, top...)

	bodyHeight := max(m.Height-lipgloss.Height(header)-FooterHeight, 5)
	var body string
	switch {
	case m.ShowHelp:
		body = m.renderHelp(bodyHeight)
	case m.Confirm.IsVisible():
		body = m.Confirm.View(m.Width, bodyHeight)
	default:
		body = m.renderGallery(bodyHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("imgport")
	server := styles.DimStyle.Render(m.serverURL)
	line := title + "  " + server
	if m.Gallery.Stale() {
		line += "  " + styles.DimBadgeStyle.Render("cached")
	}
	return line
}

func (m Model) renderImportForm() string {
	return m.Form.View(components.ImportState{
		Busy:     m.Tracker.Busy(),
		Progress: m.Tracker.Progress(),
		Err:      m.Tracker.Err(),
	})
}

func (m Model) renderStats() string {
	return components.RenderStats(components.StatsState{
		Stats:   m.Gallery.Stats(),
		Loaded:  m.Gallery.StatsLoaded(),
		Loading: m.Gallery.StatsLoading(),
		Err:     m.Gallery.StatsErr(),
	}, m.Width)
}

func (m Model) renderGallery(height int) string {
	listWidth := m.Width
	showInspector := m.Inspector.HasItem() && m.Width >= 2*MinColumnWidth
	if showInspector {
		listWidth = max(m.Width*ListColumnPercent/100, MinColumnWidth)
	}

	filterLine := ""
	if m.Focus == FocusFilter {
		filterLine = m.FilterInput.View()
		height--
	}

	list := *m.List
	list.SetSize(listWidth, height)
	view := list.View(m.emptyText())

	if showInspector {
		inspector := m.Inspector
		inspector.SetSize(m.Width-listWidth, height)
		view = lipgloss.JoinHorizontal(lipgloss.Top, view, inspector.View())
	}
	if filterLine != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, filterLine, view)
	}
	return view
}

func (m Model) emptyText() string {
	switch {
	case m.Gallery.ItemsErr() != nil:
		return styles.ErrorStyle.Render("Failed to load images: " + m.Gallery.ItemsErr().Error())
	case m.Gallery.ItemsLoading() && !m.Gallery.PageLoaded():
		return "Loading images..."
	case m.Gallery.FilterQuery() != "":
		return "No images match the filter"
	default:
		return "No images yet. Press i to import a folder."
	}
}

func (m Model) renderFooter() string {
	g := m.Gallery
	parts := []string{components.PageIndicator(g.CurrentPage(), g.TotalPages(), g.CanPrev(), g.CanNext())}

	if g.ItemsLoading() {
		parts = append(parts, styles.SpinnerStyle.Render("loading..."))
	}
	if g.PageLoaded() && g.ItemsErr() != nil {
		parts = append(parts, styles.ErrorStyle.Render(g.ItemsErr().Error()))
	}

	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		parts = append(parts, styles.ErrorStyle.Render(m.StatusMsg))
	case m.StatusMsg != "":
		parts = append(parts, styles.InfoStyle.Render(m.StatusMsg))
	case g.ActionErr() != nil:
		parts = append(parts, styles.ErrorStyle.Render(g.ActionErr().Error()))
	case g.Notice() != "":
		parts = append(parts, styles.SuccessStyle.Render(g.Notice()))
	}

	return strings.Join(parts, "   ") + "\n" + m.Help.ShortHelpView(Keys.ShortHelp())
}

func (m Model) renderHelp(height int) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.ModalTitleStyle.Render("Keys"),
		m.Help.FullHelpView(Keys.FullHelp()),
	)
	return lipgloss.Place(m.Width, height, lipgloss.Center, lipgloss.Center, styles.ModalStyle.Render(content))
}
