package tui

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/mmcdole/imgport/internal/importjob"
	"github.com/mmcdole/imgport/internal/tui/components"
	"github.com/mmcdole/imgport/internal/tui/styles"
)

// Focus is the widget receiving keystrokes
type Focus int

const (
	FocusGallery Focus = iota
	FocusImport
	FocusFilter
	FocusConfirm
)

// Opener launches an external viewer for an image location
type Opener interface {
	Open(location string) error
}

// HistorySource lists finished imports, newest first
type HistorySource interface {
	ImportHistory() ([]domain.ImportSummary, error)
}

// historyRows is how many recent imports the history panel lists
const historyRows = 5

// Model is the main Bubble Tea model for the application
type Model struct {
	Focus Focus
	Ready bool

	// Feature owners. Both are driven from Update only.
	Tracker *importjob.Tracker
	Gallery *gallery.Controller

	viewer    Opener
	history   HistorySource
	serverURL string
	logger    *slog.Logger

	// UI components
	Form        components.ImportForm
	List        *components.ImageList
	Inspector   components.Inspector
	Confirm     components.ConfirmModal
	FilterInput textinput.Model
	Help        help.Model

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg   string
	StatusIsErr bool
	statusID    int
	ShowHelp    bool
	ShowHistory bool

	History    []domain.ImportSummary
	HistoryErr error
}

// NewModel wires the import tracker and the gallery into one screen.
// The gallery subscribes to bus so it reloads whenever an import completes.
func NewModel(
	tracker *importjob.Tracker,
	bus *importjob.Bus,
	controller *gallery.Controller,
	history HistorySource,
	viewer Opener,
	serverURL string,
	logger *slog.Logger,
) Model {
	if logger == nil {
		logger = slog.Default()
	}
	bus.Subscribe(controller.OnImportCompleted)

	fi := textinput.New()
	fi.Placeholder = "type to filter..."
	fi.Prompt = "/ "
	fi.PromptStyle = styles.FilterPromptStyle

	return Model{
		Focus:       FocusGallery,
		Tracker:     tracker,
		Gallery:     controller,
		viewer:      viewer,
		history:     history,
		serverURL:   serverURL,
		logger:      logger,
		Form:        components.NewImportForm(),
		List:        components.NewImageList("Images"),
		Inspector:   components.NewInspector(),
		FilterInput: fi,
		Help:        help.New(),
	}
}

// Init shows cached data right away and fetches the first page
func (m Model) Init() tea.Cmd {
	if m.Gallery.Restore() {
		m.logger.Debug("showing cached gallery until the server answers")
	}
	m.syncGallery()
	return tea.Batch(m.Gallery.LoadPage(1), LoadHistoryCmd(m.history))
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if !m.Tracker.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Form, cmd = m.Form.UpdateSpinner(msg)
		return m, cmd

	case ClearStatusMsg:
		if msg.id == m.statusID {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil

	case ImageOpenedMsg:
		if msg.Err != nil {
			cmd := m.setStatus(fmt.Sprintf("Cannot open %s: %v", msg.Name, msg.Err), true)
			return m, cmd
		}
		cmd := m.setStatus("Opened "+msg.Name, false)
		return m, cmd

	case HistoryLoadedMsg:
		m.History = msg.History
		m.HistoryErr = msg.Err
		return m, nil

	case importjob.ImportRecordedMsg:
		if msg.Err != nil {
			cmd := m.setStatus("Import history not saved: "+msg.Err.Error(), true)
			return m, cmd
		}
		return m, LoadHistoryCmd(m.history)
	}

	// Everything else belongs to the tracker, the gallery or a focused input
	var cmds []tea.Cmd
	cmds = append(cmds, m.Tracker.Update(msg), m.Gallery.Update(msg))
	switch m.Focus {
	case FocusImport:
		var cmd tea.Cmd
		m.Form, cmd, _ = m.Form.Update(msg)
		cmds = append(cmds, cmd)
	case FocusFilter:
		var cmd tea.Cmd
		m.FilterInput, cmd = m.FilterInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.syncGallery()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	switch m.Focus {
	case FocusImport:
		return m.handleImportKeys(msg)
	case FocusFilter:
		return m.handleFilterKeys(msg)
	case FocusConfirm:
		return m.handleConfirmKeys(msg)
	}

	if m.ShowHelp {
		if key.Matches(msg, Keys.Help, Keys.Escape, Keys.Quit) {
			m.ShowHelp = false
		}
		return *m, nil
	}

	switch {
	case key.Matches(msg, Keys.Quit):
		return m.quit()

	case key.Matches(msg, Keys.Help):
		m.ShowHelp = true
		return *m, nil

	case key.Matches(msg, Keys.Import):
		m.Focus = FocusImport
		m.List.SetFocused(false)
		cmd := m.Form.Focus()
		return *m, cmd

	case key.Matches(msg, Keys.CancelImport):
		if !m.Tracker.Busy() {
			return *m, nil
		}
		m.Tracker.Cancel()
		cmd := m.setStatus("Stopped tracking the import; the server keeps working on it", false)
		return *m, cmd

	case key.Matches(msg, Keys.Filter):
		m.Focus = FocusFilter
		m.List.SetFocused(false)
		m.FilterInput.SetValue(m.Gallery.FilterQuery())
		cmd := m.FilterInput.Focus()
		return *m, cmd

	case key.Matches(msg, Keys.Up):
		m.List.MoveUp()
	case key.Matches(msg, Keys.Down):
		m.List.MoveDown()
	case key.Matches(msg, Keys.Home):
		m.List.Top()
	case key.Matches(msg, Keys.End):
		m.List.Bottom()

	case key.Matches(msg, Keys.NextPage):
		cmd := m.Gallery.Next()
		m.List.Top()
		m.syncGallery()
		return *m, cmd

	case key.Matches(msg, Keys.PrevPage):
		cmd := m.Gallery.Prev()
		m.List.Top()
		m.syncGallery()
		return *m, cmd

	case key.Matches(msg, Keys.Refresh):
		cmd := m.Gallery.Refresh()
		m.syncGallery()
		return *m, cmd

	case key.Matches(msg, Keys.Enter):
		sel := m.List.Selected()
		if sel == nil {
			return *m, nil
		}
		cmd := m.Gallery.Select(sel.Record.ID)
		m.syncGallery()
		return *m, cmd

	case key.Matches(msg, Keys.Open):
		cmd := m.openSelected()
		return *m, cmd

	case key.Matches(msg, Keys.Delete):
		sel := m.List.Selected()
		if sel == nil {
			return *m, nil
		}
		m.Focus = FocusConfirm
		m.Confirm.Show(fmt.Sprintf("Delete %s?", sel.Record.Name), sel.Record.ID)
		return *m, nil

	case key.Matches(msg, Keys.ToggleHistory):
		m.ShowHistory = !m.ShowHistory
		m.updateLayout()
		if m.ShowHistory {
			return *m, LoadHistoryCmd(m.history)
		}

	case key.Matches(msg, Keys.Escape):
		switch {
		case m.Inspector.HasItem():
			m.Gallery.ClearSelection()
		case m.Gallery.FilterQuery() != "":
			m.Gallery.Filter("")
		}
		m.syncGallery()
	}
	return *m, nil
}

func (m *Model) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, Keys.Escape) {
		m.blurInputs()
		return *m, nil
	}

	var cmd tea.Cmd
	var submitted bool
	m.Form, cmd, submitted = m.Form.Update(msg)
	if !submitted {
		return *m, cmd
	}

	submit, err := m.Tracker.Submit(m.Form.Value())
	switch {
	case errors.Is(err, domain.ErrConflict):
		cmd := m.setStatus("An import is already running", true)
		return *m, cmd
	case err != nil:
		cmd := m.setStatus(err.Error(), true)
		return *m, cmd
	}

	m.Form.Reset()
	m.blurInputs()
	return *m, tea.Batch(submit, m.Form.SpinnerTick())
}

func (m *Model) handleFilterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Gallery.Filter("")
		m.FilterInput.SetValue("")
		m.blurInputs()
		m.syncGallery()
		return *m, nil
	case tea.KeyEnter:
		m.blurInputs()
		return *m, nil
	}

	var cmd tea.Cmd
	m.FilterInput, cmd = m.FilterInput.Update(msg)
	m.Gallery.Filter(m.FilterInput.Value())
	m.List.Top()
	m.syncGallery()
	return *m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Confirm):
		id := m.Confirm.TargetID()
		m.Confirm.Hide()
		m.Focus = FocusGallery
		m.List.SetFocused(true)
		return *m, m.Gallery.Delete(id)
	case key.Matches(msg, Keys.Deny):
		m.Confirm.Hide()
		m.Focus = FocusGallery
		m.List.SetFocused(true)
	}
	return *m, nil
}

func (m *Model) blurInputs() {
	m.Form.Blur()
	m.FilterInput.Blur()
	m.Focus = FocusGallery
	m.List.SetFocused(true)
}

// openSelected opens the inspected image, or else the highlighted row
func (m *Model) openSelected() tea.Cmd {
	var img *domain.ImageRecord
	if sel := m.Gallery.Selected(); sel != nil {
		img = sel
	} else if row := m.List.Selected(); row != nil {
		img = &row.Record
	}
	if img == nil {
		return nil
	}
	if m.viewer == nil {
		return m.setStatus("No image viewer configured", true)
	}
	return OpenImageCmd(m.viewer, img.Name, img.StoragePath)
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.Tracker.Cancel()
	return *m, tea.Quit
}

// setStatus shows msg in the footer until the timeout clears it
func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusID++
	m.StatusMsg = msg
	m.StatusIsErr = isErr
	return ClearStatusCmd(m.statusID, statusTimeout)
}

// syncGallery copies controller state into the list and the inspector
func (m *Model) syncGallery() {
	m.List.SetItems(m.Gallery.Visible())
	title := "Images"
	if q := m.Gallery.FilterQuery(); q != "" {
		title = fmt.Sprintf("Images matching %q", q)
	}
	m.List.SetTitle(title)

	selected, err := m.Gallery.Selected(), m.Gallery.SelectErr()
	m.Inspector.SetItem(selected, err, m.selecting(selected, err))
}

// selecting reports whether an inspector fetch is outstanding
func (m *Model) selecting(selected *domain.ImageRecord, err error) bool {
	return selected == nil && err == nil && m.Gallery.SelectedID() != ""
}
