package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/tui/styles"
)

// ImportState is what the form shows about the tracked import
type ImportState struct {
	Busy     bool
	Progress domain.ImportProgress
	Err      error
}

// ImportForm is the folder URL input with the import's progress under it
type ImportForm struct {
	input    textinput.Model
	spinner  spinner.Model
	progress progress.Model
	width    int
}

// NewImportForm creates an unfocused form
func NewImportForm() ImportForm {
	ti := textinput.New()
	ti.Placeholder = "https://drive.google.com/drive/folders/..."
	ti.CharLimit = 2048
	ti.Prompt = "Folder URL: "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.White)
	ti.PlaceholderStyle = styles.DimStyle

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.SpinnerStyle

	bar := progress.New(
		progress.WithSolidFill(string(styles.Amber)),
		progress.WithoutPercentage(),
	)

	return ImportForm{input: ti, spinner: sp, progress: bar}
}

// Focus moves the cursor into the input
func (f *ImportForm) Focus() tea.Cmd {
	return f.input.Focus()
}

// Blur leaves the input
func (f *ImportForm) Blur() {
	f.input.Blur()
}

// Focused reports whether the input takes keystrokes
func (f ImportForm) Focused() bool {
	return f.input.Focused()
}

// Value returns the typed folder reference
func (f ImportForm) Value() string {
	return f.input.Value()
}

// Reset clears the input
func (f *ImportForm) Reset() {
	f.input.SetValue("")
}

// SetWidth updates the form width
func (f *ImportForm) SetWidth(width int) {
	f.width = width
	f.input.Width = max(width-lipgloss.Width(f.input.Prompt)-6, 10)
	f.progress.Width = max(width-6, 10)
}

// SpinnerTick starts the busy animation
func (f ImportForm) SpinnerTick() tea.Cmd {
	return f.spinner.Tick
}

// UpdateSpinner advances the busy animation
func (f ImportForm) UpdateSpinner(msg spinner.TickMsg) (ImportForm, tea.Cmd) {
	var cmd tea.Cmd
	f.spinner, cmd = f.spinner.Update(msg)
	return f, cmd
}

// Update handles input events, returns (form, cmd, submitted)
func (f ImportForm) Update(msg tea.Msg) (ImportForm, tea.Cmd, bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		return f, nil, f.input.Focused()
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd, false
}

// View renders the input, the status line and, while processing, the bar
func (f ImportForm) View(state ImportState) string {
	style := styles.InactiveBorder
	if f.input.Focused() {
		style = styles.ActiveBorder
	}

	lines := []string{
		styles.AccentStyle.Render("Import from Google Drive"),
		f.input.View(),
		f.statusLine(state),
	}
	if state.Busy || state.Progress.Done() {
		lines = append(lines, f.progress.ViewAs(state.Progress.Percent()))
	}

	frameW, _ := style.GetFrameSize()
	return style.Width(max(f.width-frameW, 0)).Render(strings.Join(lines, "\n"))
}

func (f ImportForm) statusLine(state ImportState) string {
	p := state.Progress
	switch {
	case state.Err != nil:
		return styles.ErrorStyle.Render("Import failed: " + state.Err.Error())
	case state.Busy:
		return f.spinner.View() + " " + styles.SubtitleStyle.Render(p.Message)
	case p.Done():
		line := styles.SuccessStyle.Render(p.Message)
		if p.Failed > 0 {
			line += " " + styles.DimBadgeStyle.Render(fmt.Sprintf("%d failed", p.Failed))
		}
		return line
	case p.Message != "":
		return styles.DimStyle.Render(p.Message)
	default:
		return styles.DimStyle.Render("Paste a shared folder link and press enter")
	}
}
