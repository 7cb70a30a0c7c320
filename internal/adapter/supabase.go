package adapter

import (
	"fmt"
	"strings"
)

// supabaseAdapter compacts the local-stack subcommands (start, stop,
// status) and the db family (push, reset, lint, diff). Other supabase
// subcommands pass through.
type supabaseAdapter struct{}

func (supabaseAdapter) Name() string { return "supabase" }

func (supabaseAdapter) Rewrite(argv []string) []string { return argv }

func (supabaseAdapter) NewCompactor(argv []string) Compactor {
	rest := argsAfter(argv, "supabase")
	sub := ""
	if len(rest) > 0 {
		sub = rest[0]
	}
	switch sub {
	case "start":
		return newSummarizeCompactor(summarizeSupabaseStart)
	case "stop":
		return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
			if exitCode != 0 {
				return nil
			}
			return []string{"ok supabase stopped"}
		})
	case "status":
		return newSummarizeCompactor(summarizeSupabaseStatus)
	case "db":
		dbSub := ""
		if len(rest) > 1 {
			dbSub = rest[1]
		}
		switch dbSub {
		case "push":
			return &supabasePushCompactor{}
		case "reset":
			return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
				if exitCode != 0 {
					return nil
				}
				return []string{"ok database reset complete"}
			})
		case "lint":
			return newFilterCompactor("ok no lint issues", func(line string, src Stream) bool {
				return strings.Contains(line, "ERROR") ||
					strings.Contains(line, "Warning") ||
					strings.Contains(line, "issue")
			})
		case "diff":
			return newFilterCompactor("ok no schema changes", func(line string, src Stream) bool {
				return strings.HasPrefix(line, "CREATE") ||
					strings.HasPrefix(line, "ALTER") ||
					strings.HasPrefix(line, "DROP") ||
					strings.HasPrefix(line, "--")
			})
		}
	}
	return Passthrough{}.NewCompactor(argv)
}

// summarizeSupabaseStart keeps the endpoint lines and truncates key
// material to a prefix.
func summarizeSupabaseStart(stdout, stderr []string, exitCode int) []string {
	if exitCode != 0 {
		return nil
	}
	var out []string
	for _, line := range append(append([]string{}, stdout...), stderr...) {
		if strings.Contains(line, "Starting container") ||
			strings.Contains(line, "Container") ||
			strings.Contains(line, "Seeding data") ||
			strings.Contains(line, "Applying migration") {
			continue
		}
		switch {
		case strings.Contains(line, "anon key:") || strings.Contains(line, "service_role key:"):
			label, value, _ := strings.Cut(line, ":")
			value = strings.TrimSpace(value)
			if len(value) > 20 {
				value = value[:20] + "..."
			}
			out = append(out, strings.TrimSpace(label)+": "+value)
		case strings.Contains(line, "Started supabase") ||
			strings.Contains(line, "API URL:") ||
			strings.Contains(line, "DB URL:") ||
			strings.Contains(line, "Studio URL:"):
			out = append(out, strings.TrimSpace(line))
		}
	}
	if len(out) == 0 {
		return []string{"ok supabase started"}
	}
	return out
}

func summarizeSupabaseStatus(stdout, stderr []string, exitCode int) []string {
	if exitCode != 0 {
		return nil
	}
	var out []string
	for _, line := range stdout {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.Trim(trimmed, "- ") == "" {
			continue
		}
		if strings.Contains(line, "SERVICE") ||
			strings.Contains(line, "RUNNING") ||
			strings.Contains(line, "API URL") ||
			strings.Contains(line, "DB URL") ||
			strings.Contains(line, "Studio URL") {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"No services running"}
	}
	return out
}

// supabasePushCompactor counts applied migrations rather than listing
// each one.
type supabasePushCompactor struct {
	out        []string
	migrations int
	input      int
}

func (c *supabasePushCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)
	if strings.Contains(line, "Applying migration") {
		c.migrations++
		return
	}
	if strings.Contains(line, "Applied") ||
		strings.Contains(line, "Finished") ||
		failureSignal(line) {
		c.out = append(c.out, line)
	}
}

func (c *supabasePushCompactor) Finalize(exitCode int, aborted bool) Result {
	lines := c.out
	if c.migrations > 0 {
		lines = append([]string{fmt.Sprintf("applied %d migrations", c.migrations)}, lines...)
	}
	if len(lines) == 0 && exitCode == 0 && !aborted {
		lines = []string{"ok database up to date"}
	}
	return Result{Lines: lines, InputUnits: c.input, OutputUnits: unitsOf(lines)}
}

func (c *supabasePushCompactor) InputUnits() int { return c.input }
