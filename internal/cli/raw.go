package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quelsh/winnow/internal/config"
)

func newRawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "raw",
		Short: "Print the uncompacted output of the last wrapped command",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			content, err := os.ReadFile(cfg.RawReplayPath)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(cmd.OutOrStdout(), "No raw output recorded yet.")
					return nil
				}
				return fmt.Errorf("failed to read raw replay: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), string(content))
			return nil
		},
	}
}
