package commands

import (
	"github.com/spf13/cobra"

	"github.com/garyjia/asset-tracker/internal/domain/entity"
)

var extractStore bool

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract one PDF invoice and print the record",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&extractStore, "store", false, "also upsert the record into the database")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, closeFn, err := openContainer(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var rec *entity.InvoiceRecord
	if extractStore {
		rec, err = c.Services().Ingest.IngestFile(ctx, args[0])
	} else {
		rec, err = c.Pipeline().Run(ctx, args[0])
	}
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), rec)
}
