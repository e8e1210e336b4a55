package cli

import (
	"fmt"
	"path/filepath"

	"github.com/mmcdole/imgport/internal/adapter"
	"github.com/spf13/cobra"
)

func newConfigCommand(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Opts.ConfigPath != "" {
				fmt.Fprintln(app.IO.Out, app.Opts.ConfigPath)
				return nil
			}
			fmt.Fprintln(app.IO.Out, filepath.Join(adapter.ConfigPath(), "config.yaml"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return err
			}
			if app.Opts.JSON {
				return writeJSON(app.IO.Out, cfg)
			}
			fmt.Fprintf(app.IO.Out, "server.url:                %s\n", cfg.Server.URL)
			fmt.Fprintf(app.IO.Out, "server.timeout:            %s\n", cfg.Server.Timeout)
			fmt.Fprintf(app.IO.Out, "import.source:             %s\n", cfg.Import.Source)
			fmt.Fprintf(app.IO.Out, "import.max_poll_failures:  %d\n", cfg.Import.MaxPollFailures)
			fmt.Fprintf(app.IO.Out, "gallery.per_page:          %d\n", cfg.Gallery.PerPage)
			fmt.Fprintf(app.IO.Out, "cache.dir:                 %s\n", cfg.Cache.Dir)
			fmt.Fprintf(app.IO.Out, "viewer.command:            %s\n", cfg.Viewer.Command)
			fmt.Fprintf(app.IO.Out, "logging.file:              %s\n", cfg.Logging.File)
			fmt.Fprintf(app.IO.Out, "logging.level:             %s\n", cfg.Logging.Level)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return err
			}
			if err := adapter.SaveConfig(cfg); err != nil {
				return err
			}
			fmt.Fprintf(app.IO.Out, "Wrote %s\n", filepath.Join(adapter.ConfigPath(), "config.yaml"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear-cache",
		Short: "Remove the local catalog cache and import history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(app)
			if err != nil {
				return err
			}
			if err := adapter.ClearCache(cfg); err != nil {
				return err
			}
			fmt.Fprintln(app.IO.Out, "Cache cleared")
			return nil
		},
	})

	return cmd
}
