package economics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// csvHeader fixes the export column order. Absent values become empty
// cells so a reader can tell "no data" from zero.
var csvHeader = []string{
	"period", "spent", "active_tokens", "total_tokens",
	"saved_tokens", "active_savings", "blended_savings", "commands",
}

// WriteCSV writes the merged rows plus a TOTAL line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, r := range rows {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("writing csv row %s: %w", r.Period, err)
		}
	}

	if len(rows) > 0 {
		if err := cw.Write(csvTotals(ComputeTotals(rows))); err != nil {
			return fmt.Errorf("writing csv totals: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(r Row) []string {
	cells := []string{r.Period, "", "", "", "", "", "", ""}
	if r.Feed != nil {
		cells[1] = r.Feed.Spend.StringFixed(2)
		cells[2] = strconv.FormatInt(r.Feed.ActiveUnits(), 10)
		cells[3] = strconv.FormatInt(r.Feed.TotalUnits, 10)
	}
	if r.Local != nil {
		cells[4] = strconv.FormatInt(r.Local.SavedUnits(), 10)
		cells[7] = strconv.Itoa(r.Local.Commands)
	}
	if v, ok := r.SavingsActive(); ok {
		cells[5] = v.StringFixed(2)
	}
	if v, ok := r.SavingsBlended(); ok {
		cells[6] = v.StringFixed(2)
	}
	return cells
}

func csvTotals(t Totals) []string {
	cells := []string{"TOTAL", "", "", "", "", "", "", ""}
	if t.HasFeed {
		cells[1] = t.Spend.StringFixed(2)
		cells[2] = strconv.FormatInt(t.ActiveUnits, 10)
		cells[3] = strconv.FormatInt(t.TotalUnits, 10)
	}
	if t.HasLocal {
		cells[4] = strconv.FormatInt(t.SavedUnits, 10)
		cells[7] = strconv.Itoa(t.Commands)
	}
	if v, ok := t.SavingsActive(); ok {
		cells[5] = v.StringFixed(2)
	}
	if v, ok := t.SavingsBlended(); ok {
		cells[6] = v.StringFixed(2)
	}
	return cells
}

// WriteJSON writes the rows and totals as one document. Absent values
// are omitted keys, not zeroes.
func WriteJSON(w io.Writer, rows []Row) error {
	doc := map[string]any{
		"rows": jsonRows(rows),
	}
	if len(rows) > 0 {
		doc["totals"] = jsonTotals(ComputeTotals(rows))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func jsonRows(rows []Row) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		m := map[string]any{"period": r.Period}
		if r.Feed != nil {
			m["spent"] = r.Feed.Spend.StringFixed(2)
			m["active_tokens"] = r.Feed.ActiveUnits()
			m["total_tokens"] = r.Feed.TotalUnits
		}
		if r.Local != nil {
			m["saved_tokens"] = r.Local.SavedUnits()
			m["commands"] = r.Local.Commands
		}
		if v, ok := r.SavingsActive(); ok {
			m["active_savings"] = v.StringFixed(2)
		}
		if v, ok := r.SavingsBlended(); ok {
			m["blended_savings"] = v.StringFixed(2)
		}
		out = append(out, m)
	}
	return out
}

func jsonTotals(t Totals) map[string]any {
	m := map[string]any{}
	if t.HasFeed {
		m["spent"] = t.Spend.StringFixed(2)
		m["active_tokens"] = t.ActiveUnits
		m["total_tokens"] = t.TotalUnits
	}
	if t.HasLocal {
		m["saved_tokens"] = t.SavedUnits
		m["commands"] = t.Commands
	}
	if v, ok := t.SavingsActive(); ok {
		m["active_savings"] = v.StringFixed(2)
	}
	if v, ok := t.SavingsBlended(); ok {
		m["blended_savings"] = v.StringFixed(2)
	}
	return m
}
