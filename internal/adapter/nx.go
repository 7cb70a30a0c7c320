package adapter

import "strings"

// nxAdapter filters Nx monorepo output. The mode comes from the argv
// (test, build, serve, affected); each mode keeps its own summary lines.
// Task graph dumps and Nx Cloud promotion are always dropped.
type nxAdapter struct{}

func (nxAdapter) Name() string { return "nx" }

func (nxAdapter) Rewrite(argv []string) []string { return argv }

type nxMode int

const (
	nxGeneric nxMode = iota
	nxTest
	nxBuild
	nxServe
	nxAffected
)

func detectNxMode(argv []string) nxMode {
	for _, a := range argv {
		switch {
		case a == "test" || a == "e2e" || strings.HasPrefix(a, "affected:test"):
			return nxTest
		case a == "build" || strings.HasPrefix(a, "affected:build"):
			return nxBuild
		case a == "serve" || a == "dev" || a == "start" || strings.HasPrefix(a, "start:"):
			return nxServe
		case a == "affected":
			return nxAffected
		}
	}
	return nxGeneric
}

func (nxAdapter) NewCompactor(argv []string) Compactor {
	return &nxCompactor{mode: detectNxMode(argv)}
}

type nxCompactor struct {
	mode      nxMode
	inGraph   bool
	out       []string
	input     int
}

func (c *nxCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)

	if strings.Contains(line, "Tasks to run for affected projects") ||
		(strings.HasPrefix(line, " >") && strings.Contains(line, ":")) {
		c.inGraph = true
		return
	}
	if c.inGraph {
		if strings.TrimSpace(line) == "" {
			c.inGraph = false
		}
		return
	}

	if strings.Contains(line, "Nx Cloud") ||
		strings.Contains(line, "nx.app") ||
		strings.Contains(line, "faster remote builds") ||
		strings.Contains(line, "run-many") ||
		strings.Contains(line, "NX   Nx ") {
		return
	}
	if strings.HasPrefix(line, "   - ") && strings.Contains(line, "[") {
		return
	}

	if c.keep(line) {
		c.out = append(c.out, line)
	}
}

func (c *nxCompactor) keep(line string) bool {
	switch c.mode {
	case nxServe:
		return strings.Contains(line, "Application bundle generation complete") ||
			strings.Contains(line, "Compiled successfully") ||
			strings.Contains(line, "Local:") ||
			strings.Contains(line, "ready -") ||
			strings.Contains(line, "started") ||
			strings.Contains(line, "ERROR") ||
			strings.Contains(line, "WARNING")
	case nxTest:
		return strings.Contains(line, "PASS") ||
			strings.Contains(line, "FAIL") ||
			strings.Contains(line, "Test Suites:") ||
			strings.Contains(line, "Tests:") ||
			strings.Contains(line, "Snapshots:") ||
			strings.Contains(line, "ERROR")
	case nxBuild:
		return strings.Contains(line, "Building") ||
			strings.Contains(line, "Compiling") ||
			strings.Contains(line, "Successfully") ||
			strings.Contains(line, "✓") ||
			strings.Contains(line, "ERROR") ||
			strings.Contains(line, "WARNING") ||
			strings.Contains(line, "Bundle") ||
			strings.Contains(line, "Initial Chunk Files")
	case nxAffected:
		return strings.Contains(line, "Affected projects:") ||
			strings.HasPrefix(line, "  - ") ||
			strings.Contains(line, "NX   Running target")
	default:
		return strings.Contains(line, "✓") ||
			strings.Contains(line, "Successfully") ||
			strings.Contains(line, "ERROR") ||
			strings.Contains(line, "FAILED") ||
			strings.Contains(line, "Warning") ||
			strings.HasPrefix(line, "NX   Successfully ran target") ||
			strings.HasPrefix(line, "NX   Ran target")
	}
}

func (c *nxCompactor) Finalize(exitCode int, aborted bool) Result {
	lines := c.out
	if len(lines) == 0 && exitCode == 0 && !aborted {
		lines = []string{"ok"}
	}
	return Result{Lines: lines, InputUnits: c.input, OutputUnits: unitsOf(lines)}
}

func (c *nxCompactor) InputUnits() int { return c.input }
