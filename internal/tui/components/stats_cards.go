package components

import (
	"fmt"
	"maps"
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/mmcdole/imgport/internal/tui/styles"
)

// StatsState is the stats card input
type StatsState struct {
	Stats   domain.CatalogStats
	Loaded  bool
	Loading bool
	Err     error
}

// RenderStats draws one card per figure: image count, total size and a
// card per storage provider.
func RenderStats(state StatsState, width int) string {
	if state.Err != nil && !state.Loaded {
		return styles.ErrorStyle.Render("Stats unavailable: " + state.Err.Error())
	}
	if !state.Loaded {
		if state.Loading {
			return styles.DimStyle.Render("Loading stats...")
		}
		return styles.DimStyle.Render("No stats yet")
	}

	s := state.Stats
	size := gallery.FormatMB(s.TotalSizeMB)
	if s.TotalSizeBytes > 0 {
		size = gallery.FormatBytes(s.TotalSizeBytes)
	}

	cards := []string{
		card(fmt.Sprintf("%d", s.TotalImages), "images"),
		card(size, "total size"),
	}
	for _, name := range slices.Sorted(maps.Keys(s.ProviderCounts)) {
		cards = append(cards, card(fmt.Sprintf("%d", s.ProviderCounts[name]), name))
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(row) > width && len(cards) > 2 {
		row = lipgloss.JoinHorizontal(lipgloss.Top, cards[:2]...)
	}
	if state.Err != nil {
		row = lipgloss.JoinVertical(lipgloss.Left, row, styles.ErrorStyle.Render("Stats refresh failed: "+state.Err.Error()))
	}
	return row
}

func card(value, label string) string {
	return styles.CardStyle.Render(styles.CardValueStyle.Render(value) + "\n" + styles.CardLabelStyle.Render(label))
}
