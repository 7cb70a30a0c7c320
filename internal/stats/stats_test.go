package stats

import (
	"math"
	"testing"
	"time"

	"github.com/quelsh/winnow/internal/tracker"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

// makeRecords expands per-day totals into individual records so the
// aggregation has real grouping work to do.
func makeRecords(t *testing.T, days []struct {
	ts       time.Time
	cmds     int
	in, out  int
}) []tracker.Record {
	t.Helper()

	var recs []tracker.Record
	for _, d := range days {
		// Put the remainder on the first record of the day.
		inEach, outEach := d.in/d.cmds, d.out/d.cmds
		inFirst := d.in - inEach*(d.cmds-1)
		outFirst := d.out - outEach*(d.cmds-1)
		for i := 0; i < d.cmds; i++ {
			rec := tracker.Record{Timestamp: d.ts, Tool: "git", Command: "git diff", Success: true}
			if i == 0 {
				rec.RawUnits, rec.CompactUnits = inFirst, outFirst
			} else {
				rec.RawUnits, rec.CompactUnits = inEach, outEach
			}
			recs = append(recs, rec)
		}
	}
	return recs
}

func TestAggregateDailyTotals(t *testing.T) {
	recs := makeRecords(t, []struct {
		ts       time.Time
		cmds     int
		in, out  int
	}{
		{day(2026, time.January, 28), 89, 380900, 26700},
		{day(2026, time.January, 29), 102, 894500, 32400},
		{day(2026, time.January, 30), 10, 1200, 105},
	})

	rows := Aggregate(recs, Daily)
	if len(rows) != 3 {
		t.Fatalf("expected 3 daily rows, got %d", len(rows))
	}
	if rows[0].Period != "2026-01-28" || rows[2].Period != "2026-01-30" {
		t.Errorf("rows not in ascending order: %v, %v", rows[0].Period, rows[2].Period)
	}

	sum := 0
	for _, r := range rows {
		sum += r.Commands
	}
	if sum != len(recs) {
		t.Errorf("command counts across rows = %d, want %d", sum, len(recs))
	}

	total := Total(rows)
	if total.Period != TotalPeriod {
		t.Errorf("total period = %q, want %q", total.Period, TotalPeriod)
	}
	if total.Commands != 201 {
		t.Errorf("total commands = %d, want 201", total.Commands)
	}
	if total.InputUnits != 1276600 {
		t.Errorf("total input = %d, want 1276600", total.InputUnits)
	}
	if total.OutputUnits != 59205 {
		t.Errorf("total output = %d, want 59205", total.OutputUnits)
	}
	if total.SavedUnits() != 1217395 {
		t.Errorf("total saved = %d, want 1217395", total.SavedUnits())
	}
	if math.Abs(total.SavingsPct()-95.36) > 0.01 {
		t.Errorf("total savings pct = %.4f, want ~95.36", total.SavingsPct())
	}
}

func TestSavingsPctFromTotalsNotAverage(t *testing.T) {
	// Two rows with very different percentages: 90% on a tiny day and
	// 10% on a huge day. The mean would be 50; the recomputed total is
	// dominated by the huge day.
	rows := []PeriodStats{
		{Period: "2026-01-01", Commands: 1, InputUnits: 100, OutputUnits: 10},
		{Period: "2026-01-02", Commands: 1, InputUnits: 100000, OutputUnits: 90000},
	}
	total := Total(rows)

	got := total.SavingsPct()
	want := float64(total.SavedUnits()) / float64(total.InputUnits) * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("pct = %f, want recomputed %f", got, want)
	}
	if math.Abs(got-50) < 5 {
		t.Errorf("pct = %f looks like an average of per-row percentages", got)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	rows := Aggregate(nil, Daily)
	if len(rows) != 0 {
		t.Errorf("expected no rows for empty input, got %d", len(rows))
	}

	// Distinguishable from a non-empty set with zero totals.
	zero := Aggregate([]tracker.Record{{Timestamp: day(2026, time.February, 1)}}, Daily)
	if len(zero) != 1 {
		t.Fatalf("expected 1 row for zero-unit record, got %d", len(zero))
	}
	if zero[0].InputUnits != 0 || zero[0].Commands != 1 {
		t.Errorf("zero-unit row = %+v", zero[0])
	}
}

func TestWeeklyKeyIsMonday(t *testing.T) {
	tests := []struct {
		name string
		ts   time.Time
		want string
	}{
		{"monday maps to itself", day(2026, time.January, 26), "2026-01-26"},
		{"wednesday maps back", day(2026, time.January, 28), "2026-01-26"},
		{"sunday maps back six days", day(2026, time.February, 1), "2026-01-26"},
		{"next monday starts a new week", day(2026, time.February, 2), "2026-02-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Weekly.Key(tt.ts); got != tt.want {
				t.Errorf("Weekly.Key(%v) = %q, want %q", tt.ts, got, tt.want)
			}
		})
	}
}

func TestPeriodKeysSortChronologically(t *testing.T) {
	if Monthly.Key(day(2025, time.December, 31)) >= Monthly.Key(day(2026, time.January, 1)) {
		t.Error("month keys do not sort chronologically across year boundary")
	}
	if Daily.Key(day(2026, time.January, 9)) >= Daily.Key(day(2026, time.January, 10)) {
		t.Error("day keys do not sort chronologically")
	}
}

func TestRecordNotSplitAcrossWeeks(t *testing.T) {
	// One record, one timestamp: exactly one weekly bucket.
	recs := []tracker.Record{{Timestamp: day(2026, time.February, 1), RawUnits: 10, CompactUnits: 1}}
	rows := Aggregate(recs, Weekly)
	if len(rows) != 1 {
		t.Fatalf("expected 1 weekly row, got %d", len(rows))
	}
	if rows[0].Period != "2026-01-26" {
		t.Errorf("weekly key = %q, want 2026-01-26", rows[0].Period)
	}
}

func TestSavingsPctZeroInput(t *testing.T) {
	p := PeriodStats{Period: "2026-01-01"}
	if got := p.SavingsPct(); got != 0 {
		t.Errorf("SavingsPct with zero input = %f, want 0", got)
	}
}
