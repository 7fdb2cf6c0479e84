package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/asset-tracker/internal/application/port"
)

var checkTimeout time.Duration

var checkLLMCmd = &cobra.Command{
	Use:   "check-llm",
	Short: "Send a one-line prompt to the configured model backend",
	Args:  cobra.NoArgs,
	RunE:  runCheckLLM,
}

func init() {
	checkLLMCmd.Flags().DurationVar(&checkTimeout, "timeout", 30*time.Second, "call timeout")
	rootCmd.AddCommand(checkLLMCmd)
}

func runCheckLLM(cmd *cobra.Command, args []string) error {
	c, closeFn, err := openContainer(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	gen := c.Generator()
	start := time.Now()
	reply, err := gen.Generate(ctx, port.GenerateRequest{
		Prompt:    "Reply with the single word OK.",
		MaxTokens: 16,
	})
	if err != nil {
		return fmt.Errorf("model %s: %w", gen.Model(), err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "model:   %s\n", gen.Model())
	fmt.Fprintf(out, "latency: %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(out, "reply:   %s\n", strings.TrimSpace(reply))
	return nil
}
