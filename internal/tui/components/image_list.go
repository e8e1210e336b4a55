package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/mmcdole/imgport/internal/tui/styles"
)

// Layout constants for the image list
const (
	// Border adds 1 char on each side
	BorderWidth  = 2
	BorderHeight = 2

	// Title line plus the two scroll indicators
	listChromeLines = 3
)

// ImageList is a scrollable list of the current gallery page
type ImageList struct {
	items []gallery.Match

	cursor     int
	offset     int
	maxVisible int

	width   int
	height  int
	focused bool
	title   string
}

// NewImageList creates an empty list
func NewImageList(title string) *ImageList {
	return &ImageList{title: title, focused: true}
}

// SetItems replaces the rows, keeping the cursor in range
func (l *ImageList) SetItems(items []gallery.Match) {
	l.items = items
	l.clampCursor()
}

// SetSize updates the list dimensions
func (l *ImageList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.maxVisible = max(height-BorderHeight-listChromeLines, 1)
	l.clampCursor()
}

// SetFocused toggles the focus border
func (l *ImageList) SetFocused(focused bool) {
	l.focused = focused
}

// SetTitle replaces the header line
func (l *ImageList) SetTitle(title string) {
	l.title = title
}

// Len returns the number of rows
func (l *ImageList) Len() int {
	return len(l.items)
}

// Cursor returns the highlighted row index
func (l *ImageList) Cursor() int {
	return l.cursor
}

// Selected returns the highlighted row, nil for an empty list
func (l *ImageList) Selected() *gallery.Match {
	if l.cursor < 0 || l.cursor >= len(l.items) {
		return nil
	}
	return &l.items[l.cursor]
}

func (l *ImageList) MoveUp() {
	if l.cursor > 0 {
		l.cursor--
		l.ensureVisible()
	}
}

func (l *ImageList) MoveDown() {
	if l.cursor < len(l.items)-1 {
		l.cursor++
		l.ensureVisible()
	}
}

func (l *ImageList) Top() {
	l.cursor = 0
	l.offset = 0
}

func (l *ImageList) Bottom() {
	l.cursor = max(len(l.items)-1, 0)
	l.ensureVisible()
}

func (l *ImageList) clampCursor() {
	if l.cursor >= len(l.items) {
		l.cursor = max(len(l.items)-1, 0)
	}
	l.ensureVisible()
}

func (l *ImageList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
	l.offset = max(min(l.offset, len(l.items)-l.maxVisible), 0)
}

// View renders the list inside its border
func (l *ImageList) View(emptyText string) string {
	style := styles.InactiveBorder
	if l.focused {
		style = styles.ActiveBorder
	}
	contentWidth := max(l.width-BorderWidth-1, 10)

	var b strings.Builder
	b.WriteString(styles.AccentStyle.Render(styles.Truncate(l.title, contentWidth)))
	b.WriteString("\n")

	if len(l.items) == 0 {
		b.WriteString(" \n")
		b.WriteString(styles.DimStyle.Render(emptyText))
	} else {
		up := " "
		if l.offset > 0 {
			up = styles.DimStyle.Render("↑ more")
		}
		b.WriteString(up + "\n")

		end := min(l.offset+l.maxVisible, len(l.items))
		for i := l.offset; i < end; i++ {
			b.WriteString(renderImageRow(l.items[i], i == l.cursor, contentWidth))
			b.WriteString("\n")
		}

		down := " "
		if end < len(l.items) {
			down = styles.DimStyle.Render("↓ more")
		}
		b.WriteString(down)
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(b.String())
}

// renderImageRow draws "name ... size" with the matched name runes highlighted
func renderImageRow(m gallery.Match, selected bool, width int) string {
	size := gallery.FormatBytes(m.Record.SizeBytes)
	nameWidth := max(width-lipgloss.Width(size)-3, 4)
	name := styles.Truncate(m.Record.Name, nameWidth)

	// Highlights only apply while the name is uncut
	matched := m.MatchedIndexes
	if name != m.Record.Name {
		matched = nil
	}

	gap := max(width-lipgloss.Width(name)-lipgloss.Width(size)-2, 1)
	bg := lipgloss.NewStyle()
	sizeStyle := styles.DimStyle
	if selected {
		bg = bg.Background(styles.SlateLight)
		sizeStyle = sizeStyle.Background(styles.SlateLight)
	}

	return bg.Render(" ") +
		HighlightMatches(name, matched, selected) +
		bg.Render(strings.Repeat(" ", gap)) +
		sizeStyle.Render(size) +
		bg.Render(" ")
}

// HighlightMatches renders text with the runes at matchedIndexes emphasized
func HighlightMatches(text string, matchedIndexes []int, selected bool) string {
	normal, match := styles.NormalItemStyle, styles.MatchHighlightStyle
	if selected {
		normal, match = styles.SelectedItemStyle, styles.MatchHighlightSelectedStyle
	}
	if len(matchedIndexes) == 0 {
		return normal.Render(text)
	}

	matchSet := make(map[int]bool, len(matchedIndexes))
	for _, idx := range matchedIndexes {
		matchSet[idx] = true
	}

	// Batch consecutive runes with the same style
	var result strings.Builder
	runes := []rune(text)
	for i := 0; i < len(runes); {
		isMatch := matchSet[i]
		start := i
		for i < len(runes) && matchSet[i] == isMatch {
			i++
		}
		chunk := string(runes[start:i])
		if isMatch {
			result.WriteString(match.Render(chunk))
		} else {
			result.WriteString(normal.Render(chunk))
		}
	}
	return result.String()
}

// PageIndicator renders "‹ Page X of Y ›" with unavailable arrows dimmed
func PageIndicator(current, total int, canPrev, canNext bool) string {
	prev := styles.DimStyle.Render("‹ prev")
	if canPrev {
		prev = styles.AccentStyle.Render("‹ prev")
	}
	next := styles.DimStyle.Render("next ›")
	if canNext {
		next = styles.AccentStyle.Render("next ›")
	}
	return fmt.Sprintf("%s  %s  %s", prev, styles.SubtitleStyle.Render(fmt.Sprintf("Page %d of %d", current, total)), next)
}
