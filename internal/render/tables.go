package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/quelsh/winnow/internal/economics"
	"github.com/quelsh/winnow/internal/stats"
)

// absentCell marks a value no source reported. Distinct from "0".
const absentCell = "-"

// StatsTable renders the rollup rows plus a TOTAL line.
func StatsTable(rows []stats.PeriodStats, g stats.Granularity) string {
	if len(rows) == 0 {
		return MutedStyle.Render("No data available")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Savings (%s)", g)))
	b.WriteString("\n")

	const format = "%-12s %10s %14s %14s %14s %8s"
	b.WriteString(HeaderStyle.Render(fmt.Sprintf(format,
		"PERIOD", "COMMANDS", "INPUT", "OUTPUT", "SAVED", "SAVED%")))
	b.WriteString("\n")

	for _, r := range rows {
		b.WriteString(fmt.Sprintf(format,
			r.Period,
			humanize.Comma(int64(r.Commands)),
			humanize.Comma(r.InputUnits),
			humanize.Comma(r.OutputUnits),
			humanize.Comma(r.SavedUnits()),
			fmt.Sprintf("%.1f%%", r.SavingsPct()),
		))
		b.WriteString("\n")
	}

	total := stats.Total(rows)
	b.WriteString(TotalStyle.Render(fmt.Sprintf(format,
		total.Period,
		humanize.Comma(int64(total.Commands)),
		humanize.Comma(total.InputUnits),
		humanize.Comma(total.OutputUnits),
		humanize.Comma(total.SavedUnits()),
		fmt.Sprintf("%.1f%%", total.SavingsPct()),
	)))
	b.WriteString("\n")

	return b.String()
}

// EconomicsTable renders merged economics rows plus a TOTAL line. Cells
// a source never reported show as "-" rather than zero.
func EconomicsTable(rows []economics.Row, g stats.Granularity) string {
	if len(rows) == 0 {
		return MutedStyle.Render("No data available")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Economics (%s)", g)))
	b.WriteString("\n")

	const format = "%-12s %10s %14s %14s %14s %12s %12s %9s"
	b.WriteString(HeaderStyle.Render(fmt.Sprintf(format,
		"PERIOD", "SPENT", "ACTIVE TOK", "TOTAL TOK", "SAVED TOK",
		"ACT SAVE", "BLND SAVE", "COMMANDS")))
	b.WriteString("\n")

	for _, r := range rows {
		b.WriteString(economicsLine(format, r))
		b.WriteString("\n")
	}

	b.WriteString(TotalStyle.Render(totalsLine(format, economics.ComputeTotals(rows))))
	b.WriteString("\n")

	return b.String()
}

func economicsLine(format string, r economics.Row) string {
	spent, activeTok, totalTok := absentCell, absentCell, absentCell
	saved, commands := absentCell, absentCell
	actSave, blndSave := absentCell, absentCell

	if r.Feed != nil {
		spent = "$" + r.Feed.Spend.StringFixed(2)
		activeTok = humanize.Comma(r.Feed.ActiveUnits())
		totalTok = humanize.Comma(r.Feed.TotalUnits)
	}
	if r.Local != nil {
		saved = humanize.Comma(r.Local.SavedUnits())
		commands = humanize.Comma(int64(r.Local.Commands))
	}
	if v, ok := r.SavingsActive(); ok {
		actSave = "$" + v.StringFixed(2)
	}
	if v, ok := r.SavingsBlended(); ok {
		blndSave = "$" + v.StringFixed(2)
	}

	return fmt.Sprintf(format, r.Period, spent, activeTok, totalTok, saved, actSave, blndSave, commands)
}

func totalsLine(format string, t economics.Totals) string {
	spent, activeTok, totalTok := absentCell, absentCell, absentCell
	saved, commands := absentCell, absentCell
	actSave, blndSave := absentCell, absentCell

	if t.HasFeed {
		spent = "$" + t.Spend.StringFixed(2)
		activeTok = humanize.Comma(t.ActiveUnits)
		totalTok = humanize.Comma(t.TotalUnits)
	}
	if t.HasLocal {
		saved = humanize.Comma(t.SavedUnits)
		commands = humanize.Comma(int64(t.Commands))
	}
	if v, ok := t.SavingsActive(); ok {
		actSave = "$" + v.StringFixed(2)
	}
	if v, ok := t.SavingsBlended(); ok {
		blndSave = "$" + v.StringFixed(2)
	}

	return fmt.Sprintf(format, "TOTAL", spent, activeTok, totalTok, saved, actSave, blndSave, commands)
}
