package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/imgport/internal/adapter"
	"github.com/mmcdole/imgport/internal/domain"
	"github.com/mmcdole/imgport/internal/exitcode"
	"github.com/mmcdole/imgport/internal/gallery"
	"github.com/spf13/cobra"
)

func newShowCommand(app *AppContext) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "show <image-id>",
		Short: "Show one image's details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseImageID(args[0])
			if err != nil {
				return err
			}

			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.Close()

			img, err := rt.galleryService().FetchImage(cmd.Context(), id)
			if err != nil {
				return err
			}

			if app.Opts.JSON {
				if err := writeJSON(app.IO.Out, img); err != nil {
					return err
				}
			} else {
				writeImageDetails(app.IO.Out, img)
			}

			if open {
				viewer := adapter.NewViewer(rt.cfg.Viewer, rt.logger)
				if err := viewer.Open(img.StoragePath); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&open, "open", "o", false, "Open the image in the configured viewer")
	return cmd
}

func writeImageDetails(w io.Writer, img *domain.ImageRecord) {
	fmt.Fprintf(w, "ID:        %s\n", img.ID)
	fmt.Fprintf(w, "Name:      %s\n", img.Name)
	fmt.Fprintf(w, "Size:      %s\n", gallery.FormatBytes(img.SizeBytes))
	fmt.Fprintf(w, "Type:      %s\n", img.MimeType)
	fmt.Fprintf(w, "Provider:  %s\n", img.StorageProvider)
	fmt.Fprintf(w, "Path:      %s\n", img.StoragePath)
}

func newDeleteCommand(app *AppContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <image-id>",
		Short: "Delete an imported image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseImageID(args[0])
			if err != nil {
				return err
			}

			if !yes {
				if !isTerminal(app.IO.In) {
					return withExitCode(exitcode.InvalidUsage, fmt.Errorf("refusing to delete without --yes when stdin is not a terminal"))
				}
				if !confirm(app.IO.In, app.IO.Out, fmt.Sprintf("Delete image %s? [y/N] ", id)) {
					fmt.Fprintln(app.IO.Out, "Aborted")
					return nil
				}
			}

			rt, err := openRuntime(app)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.galleryService().DeleteImage(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(app.IO.Out, "Deleted image %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
