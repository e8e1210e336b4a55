package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/spf13/cobra"
)

func newStatsCommand(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.Close()

			stats, err := rt.galleryService().FetchStats(cmd.Context())
			if err != nil {
				return err
			}
			if app.Opts.JSON {
				return writeJSON(app.IO.Out, stats)
			}

			size := gallery.FormatMB(stats.TotalSizeMB)
			if stats.TotalSizeBytes > 0 {
				size = gallery.FormatBytes(stats.TotalSizeBytes)
			}
			fmt.Fprintf(app.IO.Out, "Images:      %d\n", stats.TotalImages)
			fmt.Fprintf(app.IO.Out, "Total size:  %s\n", size)
			for _, name := range slices.Sorted(maps.Keys(stats.ProviderCounts)) {
				fmt.Fprintf(app.IO.Out, "  %-10s %d\n", name, stats.ProviderCounts[name])
			}
			return nil
		},
	}
}
