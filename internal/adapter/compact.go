package adapter

import "strings"

// failureSignal reports whether a line looks like an error report. Lines
// matching this are always kept, whatever the adapter would otherwise do.
func failureSignal(line string) bool {
	l := strings.ToLower(line)
	for _, marker := range []string{"error", "failed", "fatal", "panic"} {
		if strings.Contains(l, marker) {
			return true
		}
	}
	return false
}

// filterCompactor keeps the lines its keep function accepts, plus every
// failure signal. When nothing survives and the tool exited cleanly it
// emits a single ok line so the caller still sees a confirmation.
type filterCompactor struct {
	keep   func(line string, src Stream) bool
	okLine string
	kept   []string
	input  int
}

func newFilterCompactor(okLine string, keep func(line string, src Stream) bool) *filterCompactor {
	return &filterCompactor{keep: keep, okLine: okLine}
}

func (c *filterCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)
	if failureSignal(line) || c.keep(line, src) {
		c.kept = append(c.kept, line)
	}
}

func (c *filterCompactor) Finalize(exitCode int, aborted bool) Result {
	lines := c.kept
	if len(lines) == 0 && exitCode == 0 && !aborted && c.okLine != "" {
		lines = []string{c.okLine}
	}
	return Result{Lines: lines, InputUnits: c.input, OutputUnits: unitsOf(lines)}
}

func (c *filterCompactor) InputUnits() int { return c.input }

// summarizeCompactor buffers the whole output and hands it to a summarize
// function on Finalize. Only suitable for commands whose output is known
// to be small (status digests, push/pull reports). A nil result from
// summarize degrades to verbatim passthrough of the buffered lines.
type summarizeCompactor struct {
	summarize func(stdout, stderr []string, exitCode int) []string
	stdout    []string
	stderr    []string
	input     int
}

func newSummarizeCompactor(summarize func(stdout, stderr []string, exitCode int) []string) *summarizeCompactor {
	return &summarizeCompactor{summarize: summarize}
}

func (c *summarizeCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)
	if src == Stderr {
		c.stderr = append(c.stderr, line)
	} else {
		c.stdout = append(c.stdout, line)
	}
}

func (c *summarizeCompactor) Finalize(exitCode int, aborted bool) Result {
	var lines []string
	if aborted {
		lines = append(append(lines, c.stdout...), c.stderr...)
	} else {
		lines = c.summarize(c.stdout, c.stderr, exitCode)
		if lines == nil {
			lines = append(append(lines, c.stdout...), c.stderr...)
		}
	}
	return Result{Lines: lines, InputUnits: c.input, OutputUnits: unitsOf(lines)}
}

func (c *summarizeCompactor) InputUnits() int { return c.input }
