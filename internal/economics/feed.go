package economics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"github.com/shopspring/decimal"

	"github.com/quelsh/winnow/internal/stats"
)

// ErrFeedUnavailable wraps any failure to fetch or parse the external
// cost feed. Callers degrade to local-only rows on errors.Is match.
var ErrFeedUnavailable = errors.New("cost feed unavailable")

// DefaultFeedCommand is the external CLI queried for spend data.
const DefaultFeedCommand = "ccusage"

// Fetcher shells out to the cost feed CLI.
type Fetcher struct {
	// Command overrides the feed binary. Empty means DefaultFeedCommand.
	Command string
}

// Fetch runs `<command> <granularity> --json` and parses the result. Any
// failure, from a missing binary to malformed JSON, comes back wrapped
// in ErrFeedUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, g stats.Granularity) ([]FeedRecord, error) {
	name := f.Command
	if name == "" {
		name = DefaultFeedCommand
	}

	out, err := exec.CommandContext(ctx, name, g.String(), "--json").Output()
	if err != nil {
		return nil, fmt.Errorf("%w: running %s: %v", ErrFeedUnavailable, name, err)
	}

	records, err := ParseFeed(out, g)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	return records, nil
}

// feedEntry mirrors one element of the feed CLI's JSON arrays. The period
// field differs per granularity; costs decode through json.Number so the
// amount reaches decimal without a float detour.
type feedEntry struct {
	Date                string      `json:"date"`
	Week                string      `json:"week"`
	Month               string      `json:"month"`
	InputTokens         int64       `json:"inputTokens"`
	OutputTokens        int64       `json:"outputTokens"`
	CacheCreationTokens int64       `json:"cacheCreationTokens"`
	CacheReadTokens     int64       `json:"cacheReadTokens"`
	TotalTokens         int64       `json:"totalTokens"`
	TotalCost           json.Number `json:"totalCost"`
}

type feedEnvelope struct {
	Daily   []feedEntry `json:"daily"`
	Weekly  []feedEntry `json:"weekly"`
	Monthly []feedEntry `json:"monthly"`
}

// ParseFeed decodes the feed CLI's JSON for one granularity.
func ParseFeed(data []byte, g stats.Granularity) ([]FeedRecord, error) {
	var envelope feedEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decoding feed payload: %w", err)
	}

	var entries []feedEntry
	switch g {
	case stats.Weekly:
		entries = envelope.Weekly
	case stats.Monthly:
		entries = envelope.Monthly
	default:
		entries = envelope.Daily
	}

	records := make([]FeedRecord, 0, len(entries))
	for _, e := range entries {
		key := e.periodKey(g)
		if key == "" {
			continue
		}

		spend := decimal.Zero
		if e.TotalCost != "" {
			var err error
			spend, err = decimal.NewFromString(e.TotalCost.String())
			if err != nil {
				return nil, fmt.Errorf("decoding cost for %s: %w", key, err)
			}
		}

		cache := e.CacheCreationTokens + e.CacheReadTokens
		total := e.TotalTokens
		if total == 0 {
			total = e.InputTokens + e.OutputTokens + cache
		}

		records = append(records, FeedRecord{
			Period:      key,
			Spend:       spend,
			InputUnits:  e.InputTokens,
			OutputUnits: e.OutputTokens,
			CacheUnits:  cache,
			TotalUnits:  total,
		})
	}
	return records, nil
}

// periodKey picks the right field and normalizes it to the local key
// shape: full dates for daily and weekly, year-month for monthly.
func (e feedEntry) periodKey(g stats.Granularity) string {
	key := e.Date
	switch g {
	case stats.Weekly:
		key = e.Week
	case stats.Monthly:
		key = e.Month
	}
	if g == stats.Monthly && len(key) > 7 {
		key = key[:7]
	}
	return key
}
