package adapter

import (
	"fmt"
	"strings"
)

func isBoxDrawing(line string) bool {
	return strings.ContainsAny(line, "│├└┌┐┬┴┼─┤")
}

// pnpmList strips the box-drawing tree decoration and workspace paths
// from pnpm list output.
type pnpmList struct{}

func (pnpmList) Name() string { return "pnpm-list" }

func (pnpmList) Rewrite(argv []string) []string {
	for _, a := range argv {
		if strings.HasPrefix(a, "--depth") {
			return argv
		}
	}
	return append(append([]string{}, argv...), "--depth=0")
}

func (pnpmList) NewCompactor(argv []string) Compactor {
	return newFilterCompactor("", func(line string, src Stream) bool {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isBoxDrawing(line) {
			return false
		}
		if strings.HasPrefix(line, "Legend:") || strings.Contains(line, "node_modules/.pnpm/") {
			return false
		}
		return true
	})
}

// pnpmOutdated reduces the outdated table to one upgrade pair per
// package. pnpm exits 1 when anything is outdated; that is data, not
// failure, so the summary ignores the exit code.
type pnpmOutdated struct{}

func (pnpmOutdated) Name() string { return "pnpm-outdated" }

func (pnpmOutdated) Rewrite(argv []string) []string { return argv }

func (pnpmOutdated) NewCompactor(argv []string) Compactor {
	return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
		var upgrades []string
		for _, line := range append(append([]string{}, stdout...), stderr...) {
			if isBoxDrawing(line) {
				continue
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(line, "Legend:") || strings.HasPrefix(line, "Package") {
				continue
			}
			// Row shape: "package  current  wanted  latest"
			parts := strings.Fields(line)
			if len(parts) >= 4 && parts[1] != parts[3] {
				upgrades = append(upgrades, fmt.Sprintf("%s: %s → %s", parts[0], parts[1], parts[3]))
			}
		}
		if len(upgrades) == 0 {
			return []string{"All packages up-to-date"}
		}
		return upgrades
	})
}

// pnpmInstall drops progress bars and keeps the dependency summary plus
// anything that looks like an error.
type pnpmInstall struct{}

func (pnpmInstall) Name() string { return "pnpm-install" }

func (pnpmInstall) Rewrite(argv []string) []string { return argv }

func (pnpmInstall) NewCompactor(argv []string) Compactor {
	return newFilterCompactor("ok", func(line string, src Stream) bool {
		if strings.Contains(line, "Progress") || strings.Contains(line, "│") || strings.Contains(line, "%") {
			return false
		}
		if strings.Contains(line, "ERR") {
			return true
		}
		return strings.Contains(line, "packages in") ||
			strings.Contains(line, "dependencies") ||
			strings.HasPrefix(line, "+") ||
			strings.HasPrefix(line, "-")
	})
}
