package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/exitcode"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/mmcdole/imgport/internal/tui/styles"
	"github.com/spf13/cobra"
)

func newImagesCommand(app *AppContext) *cobra.Command {
	var page, perPage int
	var all bool

	cmd := &cobra.Command{
		Use:   "images",
		Short: "List imported images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return withExitCode(exitcode.InvalidUsage, fmt.Errorf("--page must be at least 1"))
			}

			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.Close()
			if perPage > 0 {
				rt.cfg.Gallery.PerPage = perPage
			}
			svc := rt.galleryService()

			if all {
				images, err := svc.FetchAll(cmd.Context(), func(loaded, total int) {
					if !app.Opts.JSON {
						fmt.Fprintf(app.IO.ErrOut, "\rLoading images... %d/%d", loaded, total)
					}
				})
				if !app.Opts.JSON {
					fmt.Fprintln(app.IO.ErrOut)
				}
				if err != nil {
					return err
				}
				if app.Opts.JSON {
					return writeJSON(app.IO.Out, images)
				}
				writeImageTable(app.IO.Out, images)
				fmt.Fprintf(app.IO.Out, "%d images\n", len(images))
				return nil
			}

			result, err := svc.FetchPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			if app.Opts.JSON {
				return writeJSON(app.IO.Out, result)
			}
			writeImageTable(app.IO.Out, result.Items)
			fmt.Fprintf(app.IO.Out, "Page %d of %d (%d images)\n", result.PageNumber, result.TotalPages, result.TotalItems)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to list")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Images per page (overrides gallery.per_page)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every page")
	return cmd
}

func writeImageTable(w io.Writer, images []domain.ImageRecord) {
	if len(images) == 0 {
		fmt.Fprintln(w, "No images")
		return
	}

	rows := make([][]string, 0, len(images))
	for _, img := range images {
		rows = append(rows, []string{img.ID, img.Name, gallery.FormatBytes(img.SizeBytes), img.StorageProvider})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.DimStyle).
		Headers("ID", "NAME", "SIZE", "PROVIDER").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.AccentStyle.Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	fmt.Fprintln(w, t.Render())
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
