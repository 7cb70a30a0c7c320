package adapter

import (
	"fmt"
	"strings"
)

// denoAdapter dispatches on the deno subcommand. Test output gets a
// stateful failure-block filter; lint, check, fmt, task and run get line
// filters; everything else passes through.
type denoAdapter struct{}

func (denoAdapter) Name() string { return "deno" }

func (denoAdapter) Rewrite(argv []string) []string { return argv }

func (denoAdapter) NewCompactor(argv []string) Compactor {
	sub := ""
	if rest := argsAfter(argv, "deno"); len(rest) > 0 {
		sub = rest[0]
	}
	switch sub {
	case "test":
		return &denoTestCompactor{}
	case "lint":
		return newFilterCompactor("ok no lint issues", func(line string, src Stream) bool {
			if strings.Contains(line, "Checked") && strings.Contains(line, "file") {
				return false
			}
			return strings.Contains(line, "error:") ||
				strings.Contains(line, "warning:") ||
				strings.Contains(line, "hint:") ||
				strings.HasPrefix(line, "Found")
		})
	case "check":
		return newFilterCompactor("ok type check passed", func(line string, src Stream) bool {
			if strings.Contains(line, "Check file://") {
				return false
			}
			return strings.Contains(line, "error:") ||
				strings.Contains(line, "TS") ||
				strings.HasPrefix(line, "    at ") ||
				strings.HasPrefix(strings.TrimSpace(line), "^")
		})
	case "fmt":
		return &denoFmtCompactor{}
	case "task":
		return newFilterCompactor("ok", func(line string, src Stream) bool {
			if strings.HasPrefix(line, "Task") && strings.Contains(line, "deno") {
				return false
			}
			return strings.TrimSpace(line) != ""
		})
	case "run":
		return newFilterCompactor("ok", func(line string, src Stream) bool {
			if strings.Contains(line, "Download") ||
				strings.Contains(line, "Check file://") ||
				strings.HasPrefix(line, "Compile") ||
				(strings.Contains(line, "Warning") && strings.Contains(line, "--allow-")) {
				return false
			}
			return strings.TrimSpace(line) != ""
		})
	default:
		return Passthrough{}.NewCompactor(argv)
	}
}

// denoTestCompactor keeps failure blocks intact (marker line through the
// next blank line) and the final result summary, dropping module check
// and download chatter.
type denoTestCompactor struct {
	out       []string
	block     []string
	inFailure bool
	input     int
}

func (c *denoTestCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)

	if c.inFailure {
		if strings.TrimSpace(line) == "" {
			c.inFailure = false
			c.out = append(c.out, c.block...)
			c.out = append(c.out, "")
			c.block = nil
		} else {
			c.block = append(c.block, line)
		}
		return
	}

	if strings.Contains(line, "Check file://") ||
		strings.Contains(line, "Download") ||
		strings.Contains(line, "Running") ||
		strings.HasPrefix(line, "    at ") {
		return
	}

	if strings.Contains(line, "FAILED") || strings.Contains(line, "Error:") || strings.Contains(line, "AssertionError") {
		c.inFailure = true
		c.block = append(c.block, line)
		return
	}

	if strings.Contains(line, "test result:") ||
		strings.Contains(line, "ok |") ||
		strings.Contains(line, "passed") ||
		strings.Contains(line, "failed") {
		c.out = append(c.out, line)
	}
}

func (c *denoTestCompactor) Finalize(exitCode int, aborted bool) Result {
	lines := append(c.out, c.block...)
	if len(lines) == 0 && exitCode == 0 && !aborted {
		lines = []string{"ok all tests passed"}
	}
	return Result{Lines: lines, InputUnits: c.input, OutputUnits: unitsOf(lines)}
}

func (c *denoTestCompactor) InputUnits() int { return c.input }

// denoFmtCompactor counts Formatted lines instead of listing every file.
type denoFmtCompactor struct {
	out       []string
	formatted int
	input     int
}

func (c *denoFmtCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)
	if strings.Contains(line, "Checked") && !strings.Contains(line, "error") {
		return
	}
	if strings.Contains(line, "Formatted") || strings.Contains(line, "formatted") {
		c.formatted++
		return
	}
	if strings.TrimSpace(line) != "" && !strings.Contains(line, "Checking") {
		c.out = append(c.out, line)
	}
}

func (c *denoFmtCompactor) Finalize(exitCode int, aborted bool) Result {
	lines := c.out
	if len(lines) == 0 {
		if c.formatted > 0 {
			lines = []string{fmt.Sprintf("ok formatted %d files", c.formatted)}
		} else if exitCode == 0 && !aborted {
			lines = []string{"ok no formatting needed"}
		}
	}
	return Result{Lines: lines, InputUnits: c.input, OutputUnits: unitsOf(lines)}
}

func (c *denoFmtCompactor) InputUnits() int { return c.input }
