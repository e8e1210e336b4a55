package cli

import (
	"fmt"
	"log/slog"

	"github.com/mmcdole/imgport/internal/devserver"
	"github.com/mmcdole/imgport/internal/exitcode"
	"github.com/spf13/cobra"
)

func newDevServerCommand(app *AppContext) *cobra.Command {
	var addr string
	cfg := devserver.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run a local simulated import service",
		Long: `Serve the import service API under /api with an in-memory catalog.
Folder contents are derived from the folder id, so the same link always
yields the same images. Folder ids starting with "empty" hold no images.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.ImmediateThreshold < 0 || cfg.StepPerPoll < 1 || cfg.FailEvery < 0 || cfg.MaxFolderImages < 1 {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("invalid devserver settings"))
			}

			logger := slog.New(slog.NewTextHandler(app.IO.ErrOut, &slog.HandlerOptions{Level: slog.LevelInfo}))
			fmt.Fprintf(app.IO.Out, "Serving on %s (base URL http://localhost%s/api)\n", addr, addr)
			return devserver.New(cfg, logger).Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "Listen address")
	cmd.Flags().IntVar(&cfg.ImmediateThreshold, "immediate-threshold", cfg.ImmediateThreshold, "Folders with at most this many images import immediately")
	cmd.Flags().IntVar(&cfg.StepPerPoll, "step", cfg.StepPerPoll, "Images handled per status poll")
	cmd.Flags().IntVar(&cfg.FailEvery, "fail-every", cfg.FailEvery, "Every n-th image fails to import (0 disables)")
	cmd.Flags().IntVar(&cfg.MaxFolderImages, "max-images", cfg.MaxFolderImages, "Upper bound of images per folder")
	cmd.Flags().StringVar(&cfg.Provider, "provider", cfg.Provider, "Storage provider recorded on images")
	return cmd
}
