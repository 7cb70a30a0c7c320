package dash

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"

	"github.com/quelsh/winnow/internal/render"
	"github.com/quelsh/winnow/internal/stats"
	"github.com/quelsh/winnow/internal/tracker"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.loading && len(m.rows) == 0 {
		return render.CardStyle.Render(m.spinner.View() + " Loading usage data...")
	}
	if m.errMsg != "" {
		return render.CardStyle.Render(render.ErrorTextStyle.Render("Error: ") + m.errMsg)
	}

	sections := []string{
		render.TitleStyle.Render("winnow dashboard"),
		m.renderChart(),
		m.renderTotals(),
		m.renderRecent(),
		render.MutedStyle.Render("r refresh · q quit"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderChart() string {
	var lines []string
	lines = append(lines, render.CardTitleStyle.Render(fmt.Sprintf("Saved units, last %d days", chartDays)))

	series := chartSeries(m.rows, chartDays)
	if len(series) < 2 {
		lines = append(lines, render.MutedStyle.Render("Not enough data for a chart yet"))
	} else {
		width := m.width - 16
		if width < 30 {
			width = 30
		}
		graph := asciigraph.Plot(series,
			asciigraph.Height(8),
			asciigraph.Width(width),
		)
		lines = append(lines, graph)
	}

	return render.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// chartSeries extracts the saved-units series for the newest days,
// oldest first so the chart reads left to right.
func chartSeries(rows []stats.PeriodStats, days int) []float64 {
	if len(rows) > days {
		rows = rows[len(rows)-days:]
	}
	series := make([]float64, len(rows))
	for i, r := range rows {
		series[i] = float64(r.SavedUnits())
	}
	return series
}

func (m *Model) renderTotals() string {
	total := stats.Total(m.rows)

	line := fmt.Sprintf("%s commands · %s in · %s out · %s saved (%.1f%%)",
		humanize.Comma(int64(total.Commands)),
		humanize.Comma(total.InputUnits),
		humanize.Comma(total.OutputUnits),
		humanize.Comma(total.SavedUnits()),
		total.SavingsPct(),
	)

	return render.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		render.CardTitleStyle.Render("Totals"),
		line,
	))
}

func (m *Model) renderRecent() string {
	var lines []string
	lines = append(lines, render.CardTitleStyle.Render("Recent invocations"))

	if len(m.recent) == 0 {
		lines = append(lines, render.MutedStyle.Render("No invocations recorded yet"))
	}
	for _, rec := range m.recent {
		lines = append(lines, recentLine(rec))
	}

	return render.CardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// recentLine formats one activity row.
func recentLine(rec tracker.Record) string {
	mark := render.SuccessTextStyle.Render("ok ")
	if !rec.Success {
		mark = render.ErrorTextStyle.Render("ERR")
	}

	command := rec.Command
	if len(command) > 48 {
		command = command[:45] + "..."
	}

	return fmt.Sprintf("%s %s %-48s %8s saved",
		render.MutedStyle.Render(rec.Timestamp.Format("15:04:05")),
		mark,
		command,
		humanize.Comma(int64(rec.SavedUnits())),
	)
}
