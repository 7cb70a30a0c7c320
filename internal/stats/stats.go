// Package stats rolls invocation records up into per-period savings
// figures.
package stats

import (
	"sort"
	"time"

	"github.com/quelsh/winnow/internal/tracker"
)

// Granularity selects the rollup period.
type Granularity int

const (
	// Daily groups by calendar day.
	Daily Granularity = iota
	// Weekly groups by ISO week, rendered as the Monday's date.
	Weekly
	// Monthly groups by calendar month.
	Monthly
)

// String returns the lowercase name used in flags and feed commands.
func (g Granularity) String() string {
	switch g {
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "daily"
	}
}

// Key renders the period key for t. Keys sort lexicographically in
// chronological order: days and week Mondays as 2006-01-02, months as
// 2006-01.
func (g Granularity) Key(t time.Time) string {
	switch g {
	case Weekly:
		// Back up to Monday. Go counts Sunday as 0.
		delta := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -delta).Format("2006-01-02")
	case Monthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// TotalPeriod is the Period value of the synthetic totals row.
const TotalPeriod = "TOTAL"

// PeriodStats is one rollup row.
type PeriodStats struct {
	Period      string
	Commands    int
	InputUnits  int64
	OutputUnits int64
}

// SavedUnits is the total saved in the period, floored at zero.
func (p PeriodStats) SavedUnits() int64 {
	if p.InputUnits <= p.OutputUnits {
		return 0
	}
	return p.InputUnits - p.OutputUnits
}

// SavingsPct recomputes the percentage from the period totals. A period
// with zero input reports zero, not NaN.
func (p PeriodStats) SavingsPct() float64 {
	if p.InputUnits == 0 {
		return 0
	}
	return float64(p.SavedUnits()) / float64(p.InputUnits) * 100
}

// Aggregate rolls records up by period key, ascending. Empty input
// yields an empty slice.
func Aggregate(records []tracker.Record, g Granularity) []PeriodStats {
	byKey := make(map[string]*PeriodStats)
	for _, r := range records {
		key := g.Key(r.Timestamp)
		row, ok := byKey[key]
		if !ok {
			row = &PeriodStats{Period: key}
			byKey[key] = row
		}
		row.Commands++
		row.InputUnits += int64(r.RawUnits)
		row.OutputUnits += int64(r.CompactUnits)
	}

	out := make([]PeriodStats, 0, len(byKey))
	for _, row := range byKey {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// Total derives the synthetic totals row from rollup rows. Percentages
// always come from the summed totals, never from averaging per-row
// percentages.
func Total(rows []PeriodStats) PeriodStats {
	total := PeriodStats{Period: TotalPeriod}
	for _, r := range rows {
		total.Commands += r.Commands
		total.InputUnits += r.InputUnits
		total.OutputUnits += r.OutputUnits
	}
	return total
}
