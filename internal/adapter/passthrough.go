package adapter

// Passthrough relays output verbatim. It is the fallback for programs and
// subcommands no other adapter claims, and the degradation target when a
// specialized adapter cannot parse what it sees.
type Passthrough struct{}

func (Passthrough) Name() string { return "passthrough" }

func (Passthrough) Rewrite(argv []string) []string { return argv }

func (Passthrough) NewCompactor(argv []string) Compactor { return &passthroughCompactor{} }

type passthroughCompactor struct {
	lines []string
	input int
}

func (c *passthroughCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)
	c.lines = append(c.lines, line)
}

func (c *passthroughCompactor) Finalize(exitCode int, aborted bool) Result {
	// Verbatim relay: what goes in comes out, units included.
	return Result{Lines: c.lines, InputUnits: c.input, OutputUnits: c.input}
}

func (c *passthroughCompactor) InputUnits() int { return c.input }
