package components

import (
	"fmt"
	"strings"

	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/mmcdole/imgport/internal/tui/styles"
)

// Inspector displays the full record of the selected image
type Inspector struct {
	item    *domain.ImageRecord
	err     error
	loading bool
	width   int
	height  int
}

// NewInspector creates an empty inspector
func NewInspector() Inspector {
	return Inspector{}
}

// SetItem sets what to display; loading is true while the record is fetched
func (i *Inspector) SetItem(item *domain.ImageRecord, err error, loading bool) {
	i.item = item
	i.err = err
	i.loading = loading
}

// SetSize updates the component dimensions
func (i *Inspector) SetSize(width, height int) {
	i.width = width
	i.height = height
}

// HasItem returns true if there is anything to display
func (i Inspector) HasItem() bool {
	return i.item != nil || i.err != nil || i.loading
}

// View renders the component
func (i Inspector) View() string {
	style := styles.InactiveBorder

	// Border takes 2 chars, leave 1 char safety margin
	contentWidth := max(i.width-3, 10)

	var b strings.Builder
	b.WriteString(styles.AccentStyle.Render("Info"))
	b.WriteString("\n\n")

	switch {
	case i.err != nil:
		b.WriteString(styles.ErrorStyle.Render(i.err.Error()))
	case i.loading:
		b.WriteString(styles.DimStyle.Render("Loading..."))
	case i.item != nil:
		b.WriteString(renderImageDetails(*i.item, contentWidth))
	default:
		b.WriteString(styles.DimStyle.Render("No image selected"))
	}

	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(i.width-frameW, 0)).
		Height(max(i.height-frameH, 0)).
		Render(b.String())
}

func renderImageDetails(img domain.ImageRecord, width int) string {
	rows := []struct{ label, value string }{
		{"ID", img.ID},
		{"Size", gallery.FormatBytes(img.SizeBytes)},
		{"Type", img.MimeType},
		{"Provider", img.StorageProvider},
		{"Path", img.StoragePath},
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(img.Name, width)))
	b.WriteString("\n\n")
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		label := styles.DimStyle.Render(fmt.Sprintf("%-9s", row.label))
		b.WriteString(label + styles.Truncate(row.value, width-9) + "\n")
	}
	if img.StoragePath != "" {
		b.WriteString("\n" + styles.DimStyle.Render("o to open"))
	}
	return b.String()
}
