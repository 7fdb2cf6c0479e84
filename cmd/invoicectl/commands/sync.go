package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/asset-tracker/internal/application/service"
)

var syncFolder string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile a Google Drive folder with the database",
	Long: `sync lists every PDF in the Drive folder, extracts new and modified
files and drops invoices whose source file is gone.`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncFolder, "folder", "", "Drive folder ID (defaults to drive.folder_id)")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, closeFn, err := openContainer(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := c.Services().DriveSync.Sync(ctx, syncFolder)
	if errors.Is(err, service.ErrDriveNotConfigured) {
		return fmt.Errorf("%w: set drive.credentials_file or GOOGLE_APPLICATION_CREDENTIALS", err)
	}
	if err != nil {
		return err
	}

	if err := printJSON(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d files failed to sync", report.Failed)
	}
	return nil
}
