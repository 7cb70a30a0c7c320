// Package adapter turns the raw output of wrapped developer tools into
// compact summaries while keeping count of how many output units the
// compaction saved.
package adapter

// Stream identifies which standard stream a line arrived on.
type Stream int

const (
	// Stdout is the wrapped process's standard output.
	Stdout Stream = iota
	// Stderr is the wrapped process's standard error.
	Stderr
)

// Result is the outcome of compacting one invocation's output.
type Result struct {
	// Lines is the summary, in output order.
	Lines []string
	// InputUnits estimates the size of everything the tool emitted.
	InputUnits int
	// OutputUnits estimates the size of the summary.
	OutputUnits int
}

// Compactor consumes one invocation's output line by line and produces a
// Result once the stream ends. Implementations keep their own parse state
// between Feed calls and must still produce a usable Result when the
// stream ends early (killed or timed-out process).
type Compactor interface {
	// Feed delivers one line, already stripped of ANSI escapes.
	Feed(line string, src Stream)
	// Finalize is called exactly once, after the last Feed.
	Finalize(exitCode int, aborted bool) Result
	// InputUnits reports the running input estimate; it never decreases.
	InputUnits() int
}

// Adapter wraps one tool family. Implementations are stateless; all
// per-invocation state lives in the Compactor.
type Adapter interface {
	Name() string
	// Rewrite may adjust the argv before the tool is spawned, for example
	// to request machine-readable output. It must be a pure function.
	Rewrite(argv []string) []string
	// NewCompactor returns a fresh Compactor for the rewritten argv.
	NewCompactor(argv []string) Compactor
}

// EstimateUnits approximates the token cost of a piece of text using the
// common 4-characters-per-token rule.
func EstimateUnits(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

func unitsOf(lines []string) int {
	total := 0
	for _, l := range lines {
		total += EstimateUnits(l)
	}
	return total
}
