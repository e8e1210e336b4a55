package components

import (
	"fmt"
	"strings"

	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/tui/styles"
)

// RenderHistory draws recent imports newest first, at most limit rows
func RenderHistory(history []domain.ImportSummary, err error, width, limit int) string {
	var b strings.Builder
	b.WriteString(styles.AccentStyle.Render("Recent imports"))
	b.WriteString("\n")

	switch {
	case err != nil:
		b.WriteString(styles.ErrorStyle.Render(err.Error()))
	case len(history) == 0:
		b.WriteString(styles.DimStyle.Render("No imports yet"))
	default:
		for i, s := range history {
			if i == limit {
				b.WriteString(styles.DimStyle.Render(fmt.Sprintf("... and %d more", len(history)-limit)))
				break
			}
			b.WriteString(historyRow(s, width))
			b.WriteString("\n")
		}
	}

	frameW, _ := styles.InactiveBorder.GetFrameSize()
	return styles.InactiveBorder.Width(max(width-frameW, 0)).Render(strings.TrimRight(b.String(), "\n"))
}

func historyRow(s domain.ImportSummary, width int) string {
	when := s.CompletedAt.Local().Format("Jan 02 15:04")
	counts := fmt.Sprintf("%d/%d", s.Processed, s.Total)

	countColor := styles.Green
	if s.PartialFailure() {
		countColor = styles.Red
	}
	refWidth := max(width-len(when)-len(counts)-8, 8)

	return styles.RenderListRow([]styles.RowPart{
		{Text: when + "  ", Foreground: &styles.DimGray},
		{Text: styles.Truncate(s.FolderReference, refWidth) + "  "},
		{Text: counts, Foreground: &countColor},
	}, false, width-2)
}
