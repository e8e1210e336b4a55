package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/mmcdole/imgport/internal/tui/styles"
	"github.com/spf13/cobra"
)

func newHistoryCommand(app *AppContext) *cobra.Command {
	var match string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List finished imports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.Close()

			history, err := rt.galleryService().ImportHistory()
			if err != nil {
				return err
			}
			history = gallery.FilterHistory(history, match)
			if limit > 0 && len(history) > limit {
				history = history[:limit]
			}

			if app.Opts.JSON {
				return writeJSON(app.IO.Out, history)
			}
			if len(history) == 0 {
				fmt.Fprintln(app.IO.Out, "No imports recorded")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(styles.DimStyle).
				Headers("FINISHED", "FOLDER", "IMPORTED", "FAILED", "TOTAL")
			for _, s := range history {
				t.Row(
					s.CompletedAt.Local().Format("2006-01-02 15:04"),
					s.FolderReference,
					strconv.Itoa(s.Processed),
					strconv.Itoa(s.Failed),
					strconv.Itoa(s.Total),
				)
			}
			fmt.Fprintln(app.IO.Out, t.Render())
			return nil
		},
	}
	cmd.Flags().StringVarP(&match, "match", "m", "", "Only imports whose folder or message fuzzy-matches")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many imports")
	return cmd
}
