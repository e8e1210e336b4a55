package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/imgport/internal/adapter"
	"github.com/mmcdole/imgport/internal/exitcode"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/mmcdole/imgport/internal/importjob"
	"github.com/mmcdole/imgport/internal/tui"
	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, app *AppContext) error {
	if !isTerminal(app.IO.Out) {
		return withExitCode(exitcode.InvalidUsage, fmt.Errorf("the gallery needs a terminal; use a subcommand such as `imgport images`"))
	}

	rt, err := openRuntime(app)
	if err != nil {
		return err
	}
	defer rt.Close()

	logger := rt.logger
	logger.Info("starting imgport", "version", app.Build.Version, "server", rt.cfg.Server.URL)

	bus := importjob.NewBus()
	tracker := rt.newTracker(bus, importjob.WithRecorder(rt.store))
	svc := rt.galleryService()
	viewer := adapter.NewViewer(rt.cfg.Viewer, logger)

	model := tui.NewModel(tracker, bus, gallery.NewController(svc, logger), svc, viewer, rt.cfg.Server.URL, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)

	logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}
