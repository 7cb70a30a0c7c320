package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
	"github.com/natefinch/atomic"

	"github.com/quelsh/winnow/internal/adapter"
	"github.com/quelsh/winnow/internal/config"
	"github.com/quelsh/winnow/internal/logger"
	"github.com/quelsh/winnow/internal/runner"
	"github.com/quelsh/winnow/internal/tracker"
)

// runWrap resolves the adapter, runs the child, prints the compacted
// output and records the invocation. The returned error is an
// exitCodeError when the child failed, so the wrapper's exit code always
// mirrors the child's.
func runWrap(ctx context.Context, cfg *config.Config, args []string) error {
	program, rest := args[0], args[1:]

	registry := adapter.DefaultRegistry(adapter.Options{
		MaxDiffLines: cfg.MaxDiffLines,
		Disabled:     cfg.DisabledTools,
	})
	ad := registry.Resolve(program, rest)

	argv := ad.Rewrite(append([]string{program}, rest...))
	compactor := ad.NewCompactor(argv)

	logger.Debug("wrapping command",
		"adapter", ad.Name(),
		"argv", strings.Join(argv, " "),
	)

	outcome, err := runner.Run(ctx, runner.Invocation{Program: argv[0], Args: argv[1:]}, compactor)
	if err != nil && !errors.Is(err, runner.ErrAbnormalTermination) {
		return fmt.Errorf("failed to run %s: %w", program, err)
	}

	for _, line := range outcome.Result.Lines {
		fmt.Println(line)
	}
	if outcome.ExitCode != 0 {
		fmt.Fprintln(os.Stderr, "winnow: full output available via `winnow raw`")
	}

	saveRawReplay(cfg, outcome.Raw)
	recordInvocation(cfg, ad.Name(), program, args, outcome)
	notifyLongRun(cfg, program, outcome)

	if outcome.ExitCode != 0 {
		return &exitCodeError{code: outcome.ExitCode}
	}
	return nil
}

// saveRawReplay keeps the child's full output for `winnow raw`. Failures
// degrade the replay feature, never the invocation.
func saveRawReplay(cfg *config.Config, raw string) {
	if cfg.RawReplayPath == "" {
		return
	}
	if err := atomic.WriteFile(cfg.RawReplayPath, strings.NewReader(raw)); err != nil {
		logger.Warn("failed to save raw output", "path", cfg.RawReplayPath, "error", err)
	}
}

// recordInvocation appends the accounting record. A store failure keeps
// the wrap working in degraded mode.
func recordInvocation(cfg *config.Config, adapterName, tool string, args []string, outcome *runner.Outcome) {
	store, err := openStore(cfg)
	if err != nil {
		logger.Warn("accounting degraded: cannot open store", "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	rec := tracker.Record{
		Tool:         tool,
		Command:      strings.Join(args, " "),
		RawUnits:     outcome.Result.InputUnits,
		CompactUnits: outcome.Result.OutputUnits,
		DurationMs:   outcome.Duration.Milliseconds(),
		Success:      outcome.ExitCode == 0 && !outcome.Aborted,
	}
	if err := store.Append(&rec); err != nil {
		logger.Warn("accounting degraded: cannot record invocation", "error", err)
		return
	}

	logger.Debug("recorded invocation",
		"adapter", adapterName,
		"raw_units", rec.RawUnits,
		"compact_units", rec.CompactUnits,
		"saved", rec.SavedUnits(),
	)
}

// notifyLongRun sends a desktop notification when the child ran longer
// than the configured threshold.
func notifyLongRun(cfg *config.Config, program string, outcome *runner.Outcome) {
	if cfg.NotifyThreshold <= 0 || outcome.Duration < cfg.NotifyThreshold {
		return
	}

	status := "finished"
	if outcome.ExitCode != 0 {
		status = fmt.Sprintf("failed (exit %d)", outcome.ExitCode)
	}
	msg := fmt.Sprintf("%s %s after %s", program, status, outcome.Duration.Round(time.Second))
	if err := beeep.Notify("winnow", msg, ""); err != nil {
		logger.Debug("notification failed", "error", err)
	}
}
