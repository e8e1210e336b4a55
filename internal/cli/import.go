package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/exitcode"
	"github.com/mmcdole/imgport/internal/importjob"
	"github.com/mmcdole/imgport/internal/tui/styles"
	"github.com/spf13/cobra"
)

func newImportCommand(app *AppContext) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "import <folder-url>",
		Short: "Import a Google Drive folder and wait until it finishes",
		Long: `Submit a shared folder to the import service. Small folders finish right
away; larger ones run as a server-side job whose status is checked every
two seconds until it completes.

Exits with status 5 when some images failed to import.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, app, args[0], source)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Import source (overrides import.source)")
	return cmd
}

func runImport(cmd *cobra.Command, app *AppContext, folderRef, source string) error {
	rt, err := openRuntime(app)
	if err != nil {
		return err
	}
	defer rt.Close()
	if source != "" {
		rt.cfg.Import.Source = source
	}

	var summary *domain.ImportSummary
	bus := importjob.NewBus()
	bus.Subscribe(func(s domain.ImportSummary) tea.Cmd {
		summary = &s
		return nil
	})
	tracker := rt.newTracker(bus)

	submit, err := tracker.Submit(folderRef)
	if err != nil {
		return err
	}

	interactive := !app.Opts.JSON && isTerminal(app.IO.Out)
	model := newImportModel(tracker, submit, interactive)
	opts := []tea.ProgramOption{tea.WithContext(cmd.Context()), tea.WithOutput(app.IO.Out)}
	if !interactive {
		opts = append(opts, tea.WithoutRenderer(), tea.WithInput(nil))
		if !app.Opts.JSON {
			model.lines = app.IO.Out
		}
	}

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		tracker.Cancel()
		return err
	}

	switch tracker.Phase() {
	case importjob.PhaseFailed:
		return tracker.Err()
	case importjob.PhaseCompleted:
	default:
		return withExitCode(exitcode.Interrupted, errors.New("stopped tracking the import; the server keeps working on it"))
	}
	if summary == nil {
		return errors.New("import finished without a summary")
	}

	if err := rt.store.RecordImport(*summary); err != nil {
		rt.logger.Warn("failed to record import", "error", err)
	}

	if app.Opts.JSON {
		if err := writeJSON(app.IO.Out, summary); err != nil {
			return err
		}
	} else if interactive {
		fmt.Fprintln(app.IO.Out, summary.Message)
	}

	if summary.PartialFailure() {
		return withExitCode(exitcode.PartialSuccess, fmt.Errorf("%d of %d images failed to import", summary.Failed, summary.Total))
	}
	return nil
}

// importModel drives one import without the gallery. Interactive runs
// render a spinner and a progress bar; otherwise every new status line is
// written to lines.
type importModel struct {
	tracker *importjob.Tracker
	submit  tea.Cmd

	interactive bool
	spinner     spinner.Model
	bar         progress.Model

	lines    io.Writer
	lastLine string
}

func newImportModel(tracker *importjob.Tracker, submit tea.Cmd, interactive bool) *importModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.SpinnerStyle

	return &importModel{
		tracker:     tracker,
		submit:      submit,
		interactive: interactive,
		spinner:     sp,
		bar:         progress.New(progress.WithSolidFill(string(styles.Amber)), progress.WithWidth(40)),
	}
}

func (m *importModel) Init() tea.Cmd {
	m.report()
	if m.interactive {
		return tea.Batch(m.submit, m.spinner.Tick)
	}
	return m.submit
}

func (m *importModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.tracker.Cancel()
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		if !m.tracker.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	cmd := m.tracker.Update(msg)
	m.report()

	switch m.tracker.Phase() {
	case importjob.PhaseCompleted, importjob.PhaseFailed:
		return m, tea.Batch(cmd, tea.Quit)
	}
	return m, cmd
}

// report writes the status line when it changed
func (m *importModel) report() {
	if m.lines == nil {
		return
	}
	line := m.tracker.Progress().Message
	if line == "" || line == m.lastLine {
		return
	}
	m.lastLine = line
	fmt.Fprintln(m.lines, line)
}

func (m *importModel) View() string {
	if !m.interactive || !m.tracker.Busy() {
		return ""
	}
	p := m.tracker.Progress()

	var b strings.Builder
	b.WriteString(m.spinner.View() + " " + p.Message + "\n")
	if m.tracker.Phase() == importjob.PhaseProcessing {
		b.WriteString(m.bar.ViewAs(p.Percent()) + "\n")
	}
	b.WriteString(styles.DimStyle.Render("q to stop tracking") + "\n")
	return b.String()
}
