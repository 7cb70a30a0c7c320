// Package economics merges local savings rollups with the external cost
// feed and derives cost-per-unit figures from the pair.
package economics

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quelsh/winnow/internal/stats"
)

// FeedRecord is one period of the external cost feed.
type FeedRecord struct {
	Period string
	// Spend is the period's cost. Money never goes through floats.
	Spend       decimal.Decimal
	InputUnits  int64
	OutputUnits int64
	CacheUnits  int64
	TotalUnits  int64
}

// ActiveUnits is input plus output, excluding cache traffic. Cache reads
// are priced far below live tokens, so rates over active units are the
// more representative ones.
func (f FeedRecord) ActiveUnits() int64 {
	return f.InputUnits + f.OutputUnits
}

// Row is one merged period. A nil side means that source had no data for
// the period; absence and zero are different facts.
type Row struct {
	Period string
	Feed   *FeedRecord
	Local  *stats.PeriodStats
}

// BlendedRate is spend divided by all units including cache.
func (r Row) BlendedRate() (decimal.Decimal, bool) {
	if r.Feed == nil || r.Feed.TotalUnits <= 0 {
		return decimal.Decimal{}, false
	}
	return r.Feed.Spend.Div(decimal.NewFromInt(r.Feed.TotalUnits)), true
}

// ActiveRate is spend divided by input+output units.
func (r Row) ActiveRate() (decimal.Decimal, bool) {
	if r.Feed == nil || r.Feed.ActiveUnits() <= 0 {
		return decimal.Decimal{}, false
	}
	return r.Feed.Spend.Div(decimal.NewFromInt(r.Feed.ActiveUnits())), true
}

// SavingsBlended estimates the money the period's saved units were worth
// at the blended rate. Needs both sides of the merge.
func (r Row) SavingsBlended() (decimal.Decimal, bool) {
	rate, ok := r.BlendedRate()
	if !ok || r.Local == nil {
		return decimal.Decimal{}, false
	}
	return rate.Mul(decimal.NewFromInt(r.Local.SavedUnits())), true
}

// SavingsActive estimates savings at the active rate.
func (r Row) SavingsActive() (decimal.Decimal, bool) {
	rate, ok := r.ActiveRate()
	if !ok || r.Local == nil {
		return decimal.Decimal{}, false
	}
	return rate.Mul(decimal.NewFromInt(r.Local.SavedUnits())), true
}

// Merge unions local rollups and feed records by period key, ascending.
// Every key from either side appears exactly once; a missing side stays
// nil rather than zero-filled.
func Merge(local []stats.PeriodStats, feed []FeedRecord) []Row {
	byKey := make(map[string]*Row)
	row := func(key string) *Row {
		r, ok := byKey[key]
		if !ok {
			r = &Row{Period: key}
			byKey[key] = r
		}
		return r
	}

	for i := range feed {
		row(feed[i].Period).Feed = &feed[i]
	}
	for i := range local {
		row(local[i].Period).Local = &local[i]
	}

	out := make([]Row, 0, len(byKey))
	for _, r := range byKey {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// Totals sums the merged rows. Rates and savings are recomputed from the
// summed figures, never averaged across rows.
type Totals struct {
	Spend       decimal.Decimal
	TotalUnits  int64
	ActiveUnits int64
	Commands    int
	SavedUnits  int64
	HasFeed     bool
	HasLocal    bool
}

// ComputeTotals folds the rows into a Totals.
func ComputeTotals(rows []Row) Totals {
	var t Totals
	for _, r := range rows {
		if r.Feed != nil {
			t.HasFeed = true
			t.Spend = t.Spend.Add(r.Feed.Spend)
			t.TotalUnits += r.Feed.TotalUnits
			t.ActiveUnits += r.Feed.ActiveUnits()
		}
		if r.Local != nil {
			t.HasLocal = true
			t.Commands += r.Local.Commands
			t.SavedUnits += r.Local.SavedUnits()
		}
	}
	return t
}

// BlendedRate is the aggregate spend over all units.
func (t Totals) BlendedRate() (decimal.Decimal, bool) {
	if !t.HasFeed || t.TotalUnits <= 0 {
		return decimal.Decimal{}, false
	}
	return t.Spend.Div(decimal.NewFromInt(t.TotalUnits)), true
}

// ActiveRate is the aggregate spend over active units.
func (t Totals) ActiveRate() (decimal.Decimal, bool) {
	if !t.HasFeed || t.ActiveUnits <= 0 {
		return decimal.Decimal{}, false
	}
	return t.Spend.Div(decimal.NewFromInt(t.ActiveUnits)), true
}

// SavingsBlended is total saved units priced at the blended rate.
func (t Totals) SavingsBlended() (decimal.Decimal, bool) {
	rate, ok := t.BlendedRate()
	if !ok || !t.HasLocal {
		return decimal.Decimal{}, false
	}
	return rate.Mul(decimal.NewFromInt(t.SavedUnits)), true
}

// SavingsActive is total saved units priced at the active rate.
func (t Totals) SavingsActive() (decimal.Decimal, bool) {
	rate, ok := t.ActiveRate()
	if !ok || !t.HasLocal {
		return decimal.Decimal{}, false
	}
	return rate.Mul(decimal.NewFromInt(t.SavedUnits)), true
}
