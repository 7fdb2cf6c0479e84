package commands

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/garyjia/asset-tracker/internal/application/service"
	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Extract and store every PDF under the given files and folders",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	paths, err := service.CollectPDFs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files found")
	}

	ctx := cmd.Context()
	c, closeFn, err := openContainer(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	bar := newProgressBar(cmd.ErrOrStderr(), len(paths), "Extracting")
	report, err := c.Services().Ingest.IngestPaths(ctx, paths, func(entity.FileOutcome) {
		_ = bar.Add(1)
	})
	_ = bar.Finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Files {
		if f.Failed() {
			fmt.Fprintf(out, "FAIL  %s: %s\n", f.Path, f.Error)
			continue
		}
		fmt.Fprintf(out, "OK    %s -> %s (%d units)\n", f.Path, f.InvoiceNumber, f.Items)
	}
	fmt.Fprintf(out, "\n%d processed, %d failed\n", report.Processed, report.Failed)

	if report.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", report.Failed, len(paths))
	}
	return nil
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
	)
}
