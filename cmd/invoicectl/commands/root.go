// Package commands implements the invoicectl command tree.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/asset-tracker/internal/config"
	"github.com/garyjia/asset-tracker/internal/container"
	"github.com/garyjia/asset-tracker/pkg/utils"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "invoicectl",
	Short: "Extract laptop inventory from PDF invoices",
	Long: `invoicectl runs the invoice extraction pipeline from the command line.
It extracts single PDFs, ingests local folders, reconciles a Google Drive
folder and exports the stored inventory as JSON, CSV and XLSX.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "configs/config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// ExecuteContext runs the root command with ctx available to every subcommand.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// openContainer loads configuration and starts a container without
// background workers. The returned func closes it.
func openContainer(ctx context.Context) (*container.Container, func(), error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      level,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	cc := cfg.ToContainerConfig()
	cc.DisableWorkers = true

	c, err := container.NewContainer(cc, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, nil, err
	}

	return c, func() {
		if err := c.Close(); err != nil {
			logger.Warn("Container close failed", zap.Error(err))
		}
		_ = logger.Sync()
	}, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
