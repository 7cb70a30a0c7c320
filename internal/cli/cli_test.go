package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quelsh/winnow/internal/config"
	"github.com/quelsh/winnow/internal/tracker"
)

// setupEnv isolates config discovery and the store in a temp dir.
func setupEnv(t *testing.T) *config.Config {
	t.Helper()

	tmp := t.TempDir()
	t.Setenv("WINNOW_CONFIG", filepath.Join(tmp, "missing.yaml"))
	t.Setenv("WINNOW_DB_PATH", filepath.Join(tmp, "winnow.db"))
	t.Setenv("WINNOW_RAW_PATH", filepath.Join(tmp, "raw.txt"))
	t.Setenv("WINNOW_NOTIFY_THRESHOLD", "0")
	t.Setenv("WINNOW_FEED_COMMAND", "winnow-no-such-feed-binary")

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func seedStore(t *testing.T, cfg *config.Config, records ...tracker.Record) {
	t.Helper()

	store, err := tracker.OpenSQLite(cfg.DBPath)
	require.NoError(t, err)
	defer func() { require.NoError(t, store.Close()) }()

	for i := range records {
		require.NoError(t, store.Append(&records[i]))
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestGranularityFlags(t *testing.T) {
	tests := []struct {
		name string
		gf   granularityFlags
		want string
	}{
		{"default is daily", granularityFlags{}, "daily"},
		{"weekly", granularityFlags{weekly: true}, "weekly"},
		{"monthly", granularityFlags{monthly: true}, "monthly"},
		{"monthly wins over weekly", granularityFlags{weekly: true, monthly: true}, "monthly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gf.granularity().String())
		})
	}
}

func TestWrapPropagatesExitCode(t *testing.T) {
	cfg := setupEnv(t)

	err := runWrap(context.Background(), cfg, []string{"sh", "-c", "echo hi; exit 3"})
	var exitErr *exitCodeError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.code)
}

func TestWrapRecordsInvocation(t *testing.T) {
	cfg := setupEnv(t)

	err := runWrap(context.Background(), cfg, []string{"sh", "-c", "echo compact me please"})
	require.NoError(t, err)

	store, err := tracker.OpenSQLite(cfg.DBPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)

	rec := all[0]
	assert.Equal(t, "sh", rec.Tool)
	assert.True(t, rec.Success)
	assert.Positive(t, rec.RawUnits)
	// Passthrough: nothing saved, nothing lost.
	assert.Equal(t, rec.RawUnits, rec.CompactUnits)
}

func TestWrapSavesRawReplay(t *testing.T) {
	cfg := setupEnv(t)

	err := runWrap(context.Background(), cfg, []string{"sh", "-c", "echo replay marker"})
	require.NoError(t, err)

	content, err := os.ReadFile(cfg.RawReplayPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "replay marker")
}

func TestWrapFailedCommandStillRecorded(t *testing.T) {
	cfg := setupEnv(t)

	err := runWrap(context.Background(), cfg, []string{"sh", "-c", "echo partial out; exit 1"})
	var exitErr *exitCodeError
	require.ErrorAs(t, err, &exitErr)

	store, err := tracker.OpenSQLite(cfg.DBPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Success)
	assert.Positive(t, all[0].RawUnits)
}

func TestWrapMissingBinary(t *testing.T) {
	cfg := setupEnv(t)

	err := runWrap(context.Background(), cfg, []string{"winnow-no-such-binary-zz"})
	require.Error(t, err)
	var exitErr *exitCodeError
	assert.False(t, errors.As(err, &exitErr), "spawn failure is not a child exit code")
}

func TestStatsNoData(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No usage data yet")
}

func TestStatsJSON(t *testing.T) {
	cfg := setupEnv(t)
	ts := time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC)
	seedStore(t, cfg,
		tracker.Record{Timestamp: ts, Tool: "git", Command: "git diff", RawUnits: 1000, CompactUnits: 100, Success: true},
		tracker.Record{Timestamp: ts.Add(time.Hour), Tool: "git", Command: "git status", RawUnits: 500, CompactUnits: 50, Success: true},
	)

	out, err := execute(t, "stats", "--monthly", "--json")
	require.NoError(t, err)

	var doc struct {
		Granularity string `json:"granularity"`
		Rows        []struct {
			Period     string `json:"period"`
			SavedUnits int64  `json:"saved_units"`
		} `json:"rows"`
		Total struct {
			Period     string  `json:"period"`
			SavedUnits int64   `json:"saved_units"`
			SavingsPct float64 `json:"savings_pct"`
		} `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "monthly", doc.Granularity)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "2026-01", doc.Rows[0].Period)
	assert.Equal(t, int64(1350), doc.Rows[0].SavedUnits)
	assert.Equal(t, "TOTAL", doc.Total.Period)
	assert.InDelta(t, 90.0, doc.Total.SavingsPct, 0.01)
}

func TestStatsAllJSONIsOneDocument(t *testing.T) {
	cfg := setupEnv(t)
	seedStore(t, cfg, tracker.Record{
		Timestamp: time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC),
		Tool:      "git", Command: "git diff", RawUnits: 1000, CompactUnits: 100, Success: true,
	})

	out, err := execute(t, "stats", "--all", "--json")
	require.NoError(t, err)

	// The combined output must parse as a single document keyed by
	// granularity, not as back-to-back documents.
	var doc map[string]struct {
		Granularity string `json:"granularity"`
		Rows        []struct {
			Period string `json:"period"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc, 3)

	for _, key := range []string{"daily", "weekly", "monthly"} {
		require.Contains(t, doc, key)
		assert.Equal(t, key, doc[key].Granularity)
		require.Len(t, doc[key].Rows, 1)
	}
	assert.Equal(t, "2026-01-28", doc["daily"].Rows[0].Period)
	assert.Equal(t, "2026-01", doc["monthly"].Rows[0].Period)
}

func TestStatsTableOutput(t *testing.T) {
	cfg := setupEnv(t)
	seedStore(t, cfg, tracker.Record{
		Timestamp: time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC),
		Tool:      "git", Command: "git log", RawUnits: 400, CompactUnits: 40, Success: true,
	})

	out, err := execute(t, "stats", "--daily")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-01-28")
	assert.Contains(t, out, "TOTAL")
}

func TestEconomicsLocalOnlyCSV(t *testing.T) {
	cfg := setupEnv(t)
	seedStore(t, cfg, tracker.Record{
		Timestamp: time.Date(2026, 1, 28, 12, 0, 0, 0, time.UTC),
		Tool:      "git", Command: "git diff", RawUnits: 1000, CompactUnits: 100, Success: true,
	})

	// The feed binary does not exist, so rows degrade to local-only.
	out, err := execute(t, "economics", "--monthly", "--format", "csv")
	require.NoError(t, err)

	assert.Contains(t, out, "period,spent,active_tokens")
	assert.Contains(t, out, "2026-01,,,,900,,,1")
}

func TestEconomicsRejectsUnknownFormat(t *testing.T) {
	setupEnv(t)

	_, err := execute(t, "economics", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestRawNoReplay(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "raw")
	require.NoError(t, err)
	assert.Contains(t, out, "No raw output recorded yet")
}

func TestRawPrintsLastOutput(t *testing.T) {
	cfg := setupEnv(t)
	require.NoError(t, runWrap(context.Background(), cfg, []string{"sh", "-c", "echo full fidelity"}))

	out, err := execute(t, "raw")
	require.NoError(t, err)
	assert.Contains(t, out, "full fidelity")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "winnow")
}

func TestRootWithoutArgsShowsHelp(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "winnow")
	assert.Contains(t, out, "stats")
}
