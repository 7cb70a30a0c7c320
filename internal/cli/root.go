// Package cli wires the command tree: the default wrap flow plus the
// reporting subcommands.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quelsh/winnow/internal/config"
	"github.com/quelsh/winnow/internal/logger"
	"github.com/quelsh/winnow/internal/tracker"
	"github.com/quelsh/winnow/internal/version"
)

// exitCodeError carries the wrapped child's exit code up through cobra.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("command exited with code %d", e.code)
}

// Main runs the CLI and returns the process exit code.
func Main() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		var exitErr *exitCodeError
		if errors.As(err, &exitErr) {
			// The child's own output already explained the failure.
			return exitErr.code
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// NewRootCmd builds the command tree. The root command itself is the
// wrapper: `winnow git status` runs git through its adapter.
func NewRootCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "winnow <command> [args...]",
		Short: "Run dev tools with compacted output and savings accounting",
		Long: `winnow wraps development tools (git, pnpm, deno, nx, gh, supabase),
compacts their output, and records the estimated token units saved.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetDebug(debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runWrap(cmd.Context(), cfg, args)
		},
	}

	// Flags after the wrapped program belong to the wrapped program.
	cmd.Flags().SetInterspersed(false)
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newStatsCmd(),
		newEconomicsCmd(),
		newRawCmd(),
		newDashCmd(),
		newVersionCmd(),
	)

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}

// openStore opens the configured sqlite store.
func openStore(cfg *config.Config) (*tracker.SQLite, error) {
	return tracker.OpenSQLite(cfg.DBPath)
}

// loadRecords reads the full store, mapping emptiness to ErrNoData so
// callers can show a notice instead of an empty table.
func loadRecords(store tracker.Store) ([]tracker.Record, error) {
	records, err := store.All()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, tracker.ErrNoData
	}
	return records, nil
}
