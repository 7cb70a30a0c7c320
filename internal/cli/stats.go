package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quelsh/winnow/internal/config"
	"github.com/quelsh/winnow/internal/render"
	"github.com/quelsh/winnow/internal/stats"
	"github.com/quelsh/winnow/internal/tracker"
)

// granularityFlags holds the shared --daily/--weekly/--monthly set.
type granularityFlags struct {
	daily   bool
	weekly  bool
	monthly bool
}

func (g *granularityFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&g.daily, "daily", false, "group by day (default)")
	cmd.Flags().BoolVar(&g.weekly, "weekly", false, "group by ISO week")
	cmd.Flags().BoolVar(&g.monthly, "monthly", false, "group by month")
}

func (g *granularityFlags) granularity() stats.Granularity {
	switch {
	case g.monthly:
		return stats.Monthly
	case g.weekly:
		return stats.Weekly
	default:
		return stats.Daily
	}
}

func newStatsCmd() *cobra.Command {
	var (
		gf     granularityFlags
		all    bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show token savings per period",
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
			if errors.Is(err, tracker.ErrNoData) {
				fmt.Fprintln(cmd.OutOrStdout(), "No usage data yet. Wrap some commands first: winnow git status")
				return nil
			}
			if err != nil {
				return err
			}

			granularities := []stats.Granularity{gf.granularity()}
			if all {
				granularities = []stats.Granularity{stats.Daily, stats.Weekly, stats.Monthly}
			}

			if asJSON {
				return printStatsJSON(cmd, records, granularities)
			}
			for _, g := range granularities {
				fmt.Fprintln(cmd.OutOrStdout(), render.StatsTable(stats.Aggregate(records, g), g))
			}
			return nil
		},
	}

	gf.register(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "show daily, weekly and monthly rollups")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit rollup rows as JSON")

	return cmd
}

// printStatsJSON always writes a single document. One granularity keeps
// the flat granularity/rows/total shape; several are nested under their
// granularity names so the combined output stays parseable as a whole.
func printStatsJSON(cmd *cobra.Command, records []tracker.Record, granularities []stats.Granularity) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if len(granularities) == 1 {
		return enc.Encode(statsDoc(records, granularities[0]))
	}
	doc := make(map[string]any, len(granularities))
	for _, g := range granularities {
		doc[g.String()] = statsDoc(records, g)
	}
	return enc.Encode(doc)
}

func statsDoc(records []tracker.Record, g stats.Granularity) map[string]any {
	rows := stats.Aggregate(records, g)
	return map[string]any{
		"granularity": g.String(),
		"rows":        jsonRows(rows),
		"total":       jsonRow(stats.Total(rows)),
	}
}

// statsRow is the JSON shape of one rollup row.
type statsRow struct {
	Period      string  `json:"period"`
	Commands    int     `json:"commands"`
	InputUnits  int64   `json:"input_units"`
	OutputUnits int64   `json:"output_units"`
	SavedUnits  int64   `json:"saved_units"`
	SavingsPct  float64 `json:"savings_pct"`
}

func jsonRow(p stats.PeriodStats) statsRow {
	return statsRow{
		Period:      p.Period,
		Commands:    p.Commands,
		InputUnits:  p.InputUnits,
		OutputUnits: p.OutputUnits,
		SavedUnits:  p.SavedUnits(),
		SavingsPct:  p.SavingsPct(),
	}
}

func jsonRows(rows []stats.PeriodStats) []statsRow {
	out := make([]statsRow, len(rows))
	for i, r := range rows {
		out[i] = jsonRow(r)
	}
	return out
}
