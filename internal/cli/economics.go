package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quelsh/winnow/internal/config"
	"github.com/quelsh/winnow/internal/economics"
	"github.com/quelsh/winnow/internal/logger"
	"github.com/quelsh/winnow/internal/render"
	"github.com/quelsh/winnow/internal/stats"
	"github.com/quelsh/winnow/internal/tracker"
)

func newEconomicsCmd() *cobra.Command {
	var (
		gf     granularityFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "economics",
		Short: "Merge savings with the external cost feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := loadRecords(store)
			if err != nil && !errors.Is(err, tracker.ErrNoData) {
				return err
			}

			g := gf.granularity()
			local := stats.Aggregate(records, g)

			// A broken feed degrades to local-only rows, it never fails
			// the command.
			fetcher := economics.Fetcher{Command: cfg.FeedCommand}
			feed, err := fetcher.Fetch(cmd.Context(), g)
			if err != nil {
				logger.Warn("cost feed unavailable, showing local data only", "error", err)
				feed = nil
			}

			rows := economics.Merge(local, feed)

			switch format {
			case "json":
				return economics.WriteJSON(cmd.OutOrStdout(), rows)
			case "csv":
				return economics.WriteCSV(cmd.OutOrStdout(), rows)
			case "text":
				fmt.Fprintln(cmd.OutOrStdout(), render.EconomicsTable(rows, g))
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text, json or csv)", format)
			}
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or csv")

	return cmd
}
