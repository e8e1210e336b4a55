package cli

import (
	"fmt"
	"os"

	"github.com/mmcdole/imgport/internal/adapter"
	"github.com/mmcdole/imgport/internal/exitcode"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the imgport command tree. Without a subcommand it
// starts the interactive gallery.
func NewRootCommand(app *AppContext) *cobra.Command {
	root := &cobra.Command{
		Use:   "imgport",
		Short: "Import image folders from Google Drive and browse the catalog",
		Long: `imgport submits shared Google Drive folders to an image import service,
follows long-running imports until they finish and browses the imported catalog.

Run without arguments for the interactive gallery.`,
		Args: cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present
			if err := adapter.LoadEnvFiles(); err != nil {
				fmt.Fprintln(app.IO.ErrOut, "WARN:", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, app)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&app.Opts.ConfigPath, "config", "c", os.Getenv("IMGPORT_CONFIG"), "Path to config file")
	root.PersistentFlags().StringVarP(&app.Opts.ServerURL, "server", "s", "", "Import service base URL (overrides server.url)")
	root.PersistentFlags().StringVar(&app.Opts.LogFile, "log-file", "", `Log file path, "-" for stderr`)
	root.PersistentFlags().BoolVar(&app.Opts.JSON, "json", false, "Emit JSON instead of text")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withExitCode(exitcode.InvalidUsage, err)
	})

	root.AddCommand(newImportCommand(app))
	root.AddCommand(newImagesCommand(app))
	root.AddCommand(newShowCommand(app))
	root.AddCommand(newDeleteCommand(app))
	root.AddCommand(newStatsCommand(app))
	root.AddCommand(newHistoryCommand(app))
	root.AddCommand(newConfigCommand(app))
	root.AddCommand(newDevServerCommand(app))
	root.AddCommand(newVersionCommand(app))

	return root
}

func printVersion(app *AppContext) {
	version := app.Build.Version
	if version == "" {
		version = "dev"
	}
	commit := app.Build.Commit
	if commit == "" {
		commit = "unknown"
	}
	date := app.Build.Date
	if date == "" {
		date = "unknown"
	}

	fmt.Fprintf(app.IO.Out, "imgport version %s\ncommit: %s\nbuild_date: %s\n", version, commit, date)
}

func newVersionCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version/build metadata",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(app)
		},
	}
}
