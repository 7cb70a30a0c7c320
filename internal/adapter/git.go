package adapter

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const defaultMaxDiffLines = 100

// argsAfter returns the argv elements following the first occurrence of
// token, or nil when token is absent.
func argsAfter(argv []string, token string) []string {
	for i, a := range argv {
		if a == token {
			return argv[i+1:]
		}
	}
	return nil
}

func hasAny(args []string, want ...string) bool {
	for _, a := range args {
		for _, w := range want {
			if a == w {
				return true
			}
		}
	}
	return false
}

// gitStatus compacts porcelain status output into a grouped digest. Any
// user-supplied status argument disables compaction entirely.
type gitStatus struct{}

func (gitStatus) Name() string { return "git-status" }

func (gitStatus) Rewrite(argv []string) []string {
	if rest := argsAfter(argv, "status"); rest != nil && len(rest) == 0 {
		return append(append([]string{}, argv...), "--porcelain=v1", "-b")
	}
	return argv
}

func (gitStatus) NewCompactor(argv []string) Compactor {
	if !hasAny(argv, "--porcelain=v1") {
		return Passthrough{}.NewCompactor(argv)
	}
	return newSummarizeCompactor(summarizeStatus)
}

func summarizeStatus(stdout, stderr []string, exitCode int) []string {
	if exitCode != 0 {
		return nil
	}
	if len(stdout) == 0 {
		return []string{"Clean working tree"}
	}

	var out []string
	body := stdout
	if strings.HasPrefix(stdout[0], "## ") {
		out = append(out, "on "+strings.TrimPrefix(stdout[0], "## "))
		body = stdout[1:]
	}
	if len(body) == 0 {
		out = append(out, "Clean working tree")
		return out
	}

	var staged, modified, untracked []string
	conflicts := 0
	for _, line := range body {
		if len(line) < 3 {
			continue
		}
		x, y, file := line[0], line[1], line[3:]
		switch x {
		case 'M', 'A', 'D', 'R', 'C':
			staged = append(staged, file)
		case 'U':
			conflicts++
		}
		if y == 'M' || y == 'D' {
			modified = append(modified, file)
		}
		if x == '?' && y == '?' {
			untracked = append(untracked, file)
		}
	}

	out = appendGroup(out, "Staged", staged, 5)
	out = appendGroup(out, "Modified", modified, 5)
	out = appendGroup(out, "Untracked", untracked, 3)
	if conflicts > 0 {
		out = append(out, fmt.Sprintf("Conflicts: %d files", conflicts))
	}
	if len(out) == 0 {
		out = append(out, "Clean working tree")
	}
	return out
}

func appendGroup(out []string, label string, files []string, cap_ int) []string {
	if len(files) == 0 {
		return out
	}
	out = append(out, fmt.Sprintf("%s: %d files", label, len(files)))
	for i, f := range files {
		if i == cap_ {
			out = append(out, fmt.Sprintf("   ... +%d more", len(files)-cap_))
			break
		}
		out = append(out, "   "+f)
	}
	return out
}

// gitDiff compacts unified diff output: one header per file, up to ten
// lines per hunk, a global line cap, and an added/removed count per file.
// It also serves git show and git stash show. Stat and format flags
// disable compaction.
type gitDiff struct {
	maxLines int
	name     string
}

func (a gitDiff) Name() string { return a.name }

func (a gitDiff) Rewrite(argv []string) []string {
	if a.name == "git-stash-show" && !hasAny(argv, "-p", "--patch") {
		return append(append([]string{}, argv...), "-p")
	}
	return argv
}

func (a gitDiff) NewCompactor(argv []string) Compactor {
	if hasAny(argv, "--stat", "--numstat", "--shortstat") {
		return Passthrough{}.NewCompactor(argv)
	}
	for _, arg := range argv {
		if strings.HasPrefix(arg, "--pretty") || strings.HasPrefix(arg, "--format") {
			return Passthrough{}.NewCompactor(argv)
		}
	}
	max := a.maxLines
	if max <= 0 {
		max = defaultMaxDiffLines
	}
	return &diffCompactor{maxLines: max}
}

type diffCompactor struct {
	maxLines  int
	out       []string
	stderr    []string
	file      string
	added     int
	removed   int
	inHunk    bool
	hunkLines int
	capped    bool
	sawDiff   bool
	input     int
}

const maxHunkLines = 10

func (c *diffCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)
	if src == Stderr {
		c.stderr = append(c.stderr, line)
		return
	}
	if c.capped {
		return
	}

	switch {
	case strings.HasPrefix(line, "diff --git"):
		c.sawDiff = true
		c.flushFileCount()
		c.file = "unknown"
		if _, after, ok := strings.Cut(line, " b/"); ok {
			c.file = after
		}
		c.out = append(c.out, "=== "+c.file)
		c.added, c.removed = 0, 0
		c.inHunk = false
	case strings.HasPrefix(line, "@@"):
		c.inHunk = true
		c.hunkLines = 0
		parts := strings.SplitN(line, "@@", 3)
		info := ""
		if len(parts) > 1 {
			info = strings.TrimSpace(parts[1])
		}
		c.out = append(c.out, "  @@ "+info+" @@")
	case c.inHunk:
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			c.added++
			c.keepHunkLine(line)
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			c.removed++
			c.keepHunkLine(line)
		case !strings.HasPrefix(line, `\`):
			if c.hunkLines > 0 {
				c.keepHunkLine(line)
			}
		}
	default:
		// Header noise between diff --git and the first hunk (index
		// lines, mode changes, binary notices). Keep binary notices,
		// they are the whole story for those files.
		if strings.HasPrefix(line, "Binary files") {
			c.out = append(c.out, "  "+line)
		}
	}

	if len(c.out) >= c.maxLines {
		c.out = append(c.out, "... (more changes truncated)")
		c.capped = true
	}
}

func (c *diffCompactor) keepHunkLine(line string) {
	if c.hunkLines < maxHunkLines {
		c.out = append(c.out, "  "+line)
		c.hunkLines++
		if c.hunkLines == maxHunkLines {
			c.out = append(c.out, "  ... (truncated)")
		}
	}
}

func (c *diffCompactor) flushFileCount() {
	if c.file != "" && (c.added > 0 || c.removed > 0) {
		c.out = append(c.out, fmt.Sprintf("  +%d -%d", c.added, c.removed))
	}
}

func (c *diffCompactor) Finalize(exitCode int, aborted bool) Result {
	if !c.capped {
		c.flushFileCount()
	}
	lines := c.out
	if exitCode != 0 || aborted {
		lines = append(lines, c.stderr...)
	} else if !c.sawDiff && len(lines) == 0 {
		lines = []string{"No changes"}
	}
	return Result{Lines: lines, InputUnits: c.input, OutputUnits: unitsOf(lines)}
}

func (c *diffCompactor) InputUnits() int { return c.input }

// gitLog asks git for a compact one-line format instead of filtering the
// default output. Savings come from the rewrite, so the compactor is a
// plain relay.
type gitLog struct{}

func (gitLog) Name() string { return "git-log" }

func (gitLog) Rewrite(argv []string) []string {
	rest := argsAfter(argv, "log")
	if rest == nil {
		return argv
	}
	hasFormat, hasLimit, wantsMerges := false, false, false
	for _, a := range rest {
		if strings.HasPrefix(a, "--oneline") || strings.HasPrefix(a, "--pretty") || strings.HasPrefix(a, "--format") {
			hasFormat = true
		}
		if len(a) >= 2 && a[0] == '-' && a[1] >= '0' && a[1] <= '9' {
			hasLimit = true
		}
		if strings.HasPrefix(a, "-n") || strings.HasPrefix(a, "--max-count") {
			hasLimit = true
		}
		if a == "--merges" || a == "--min-parents=2" {
			wantsMerges = true
		}
	}
	out := append([]string{}, argv...)
	if !hasFormat {
		out = append(out, "--pretty=format:%h %s (%ar) <%an>")
	}
	if !hasLimit {
		out = append(out, "-10")
	}
	if !wantsMerges {
		out = append(out, "--no-merges")
	}
	return out
}

func (gitLog) NewCompactor(argv []string) Compactor { return Passthrough{}.NewCompactor(argv) }

// gitBranch lists branches compactly: current first, locals, then a
// digest of remote-only branches. Action flags (delete, move, copy) get
// a one-line confirmation instead.
type gitBranch struct{}

func (gitBranch) Name() string { return "git-branch" }

func (gitBranch) Rewrite(argv []string) []string {
	rest := argsAfter(argv, "branch")
	if rest == nil || hasAny(rest, "-d", "-D", "-m", "-M", "-c", "-C") {
		return argv
	}
	return append(append([]string{}, argv...), "-a", "--no-color")
}

func (gitBranch) NewCompactor(argv []string) Compactor {
	if hasAny(argsAfter(argv, "branch"), "-d", "-D", "-m", "-M", "-c", "-C") {
		return newSummarizeCompactor(summarizeAction("git branch"))
	}
	return newSummarizeCompactor(summarizeBranchList)
}

func summarizeBranchList(stdout, stderr []string, exitCode int) []string {
	if exitCode != 0 {
		return nil
	}
	current := ""
	var local, remote []string
	for _, line := range stdout {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "* "):
			current = strings.TrimPrefix(line, "* ")
		case strings.HasPrefix(line, "remotes/origin/"):
			b := strings.TrimPrefix(line, "remotes/origin/")
			if strings.HasPrefix(b, "HEAD ") {
				continue
			}
			remote = append(remote, b)
		default:
			local = append(local, line)
		}
	}

	out := []string{"* " + current}
	for _, b := range local {
		out = append(out, "  "+b)
	}

	var remoteOnly []string
	for _, r := range remote {
		if r == current || contains(local, r) {
			continue
		}
		remoteOnly = append(remoteOnly, r)
	}
	if len(remoteOnly) > 0 {
		out = append(out, fmt.Sprintf("  remote-only (%d):", len(remoteOnly)))
		for i, b := range remoteOnly {
			if i == 10 {
				out = append(out, fmt.Sprintf("    ... +%d more", len(remoteOnly)-10))
				break
			}
			out = append(out, "    "+b)
		}
	}
	return out
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// summarizeAction produces the generic ok / FAILED digest for mutating
// commands whose success output carries no information.
func summarizeAction(label string) func(stdout, stderr []string, exitCode int) []string {
	return func(stdout, stderr []string, exitCode int) []string {
		if exitCode == 0 {
			return []string{"ok"}
		}
		out := []string{"FAILED: " + label}
		out = append(out, stderr...)
		out = append(out, stdout...)
		return out
	}
}

type gitPush struct{}

func (gitPush) Name() string { return "git-push" }

func (gitPush) Rewrite(argv []string) []string { return argv }

func (gitPush) NewCompactor(argv []string) Compactor {
	return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
		if exitCode != 0 {
			out := []string{"FAILED: git push"}
			out = append(out, stderr...)
			out = append(out, stdout...)
			return out
		}
		for _, line := range stderr {
			if strings.Contains(line, "Everything up-to-date") {
				return []string{"ok (up-to-date)"}
			}
		}
		// git push reports ref updates on stderr: "abc..def  main -> main"
		for _, line := range stderr {
			if strings.Contains(line, "->") {
				parts := strings.Fields(line)
				if len(parts) >= 3 {
					return []string{"ok " + parts[len(parts)-1]}
				}
			}
		}
		return []string{"ok"}
	})
}

type gitPull struct{}

func (gitPull) Name() string { return "git-pull" }

func (gitPull) Rewrite(argv []string) []string { return argv }

func (gitPull) NewCompactor(argv []string) Compactor {
	return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
		if exitCode != 0 {
			out := []string{"FAILED: git pull"}
			out = append(out, stderr...)
			out = append(out, stdout...)
			return out
		}
		for _, line := range stdout {
			if strings.Contains(line, "Already up to date") || strings.Contains(line, "Already up-to-date") {
				return []string{"ok (up-to-date)"}
			}
		}
		files, ins, del := parseShortstat(stdout)
		if files > 0 {
			return []string{fmt.Sprintf("ok %d files +%d -%d", files, ins, del)}
		}
		return []string{"ok"}
	})
}

// parseShortstat reads "3 files changed, 10 insertions(+), 2 deletions(-)".
func parseShortstat(lines []string) (files, insertions, deletions int) {
	for _, line := range lines {
		if !strings.Contains(line, "file") || !strings.Contains(line, "changed") {
			continue
		}
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			n, _ := strconv.Atoi(strings.Fields(part + " 0")[0])
			switch {
			case strings.Contains(part, "file"):
				files = n
			case strings.Contains(part, "insertion"):
				insertions = n
			case strings.Contains(part, "deletion"):
				deletions = n
			}
		}
	}
	return files, insertions, deletions
}

type gitFetch struct{}

func (gitFetch) Name() string { return "git-fetch" }

func (gitFetch) Rewrite(argv []string) []string { return argv }

func (gitFetch) NewCompactor(argv []string) Compactor {
	return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
		if exitCode != 0 {
			out := []string{"FAILED: git fetch"}
			out = append(out, stderr...)
			return out
		}
		// fetch reports refs on stderr
		refs := 0
		for _, line := range stderr {
			if strings.Contains(line, "->") || strings.Contains(line, "[new") {
				refs++
			}
		}
		if refs > 0 {
			return []string{fmt.Sprintf("ok fetched (%d new refs)", refs)}
		}
		return []string{"ok fetched"}
	})
}

// gitStashList rewrites "stash@{0}: WIP on main: abc1234 msg" down to
// "stash@{0}: abc1234 msg".
type gitStashList struct{}

func (gitStashList) Name() string { return "git-stash-list" }

func (gitStashList) Rewrite(argv []string) []string { return argv }

func (gitStashList) NewCompactor(argv []string) Compactor {
	return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
		if exitCode != 0 {
			return nil
		}
		if len(stdout) == 0 {
			return []string{"No stashes"}
		}
		out := make([]string, 0, len(stdout))
		for _, line := range stdout {
			index, rest, ok := strings.Cut(line, ": ")
			if !ok {
				out = append(out, line)
				continue
			}
			if _, msg, ok := strings.Cut(rest, ": "); ok {
				rest = msg
			}
			out = append(out, index+": "+strings.TrimSpace(rest))
		}
		return out
	})
}

// gitStashMutate covers stash push/pop/apply/drop and the bare form.
type gitStashMutate struct{}

func (gitStashMutate) Name() string { return "git-stash" }

func (gitStashMutate) Rewrite(argv []string) []string { return argv }

func (gitStashMutate) NewCompactor(argv []string) Compactor {
	sub := "push"
	if rest := argsAfter(argv, "stash"); len(rest) > 0 && !strings.HasPrefix(rest[0], "-") {
		sub = rest[0]
	}
	return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
		if exitCode != 0 {
			out := []string{"FAILED: git stash " + sub}
			out = append(out, stderr...)
			return out
		}
		for _, line := range stdout {
			if strings.Contains(line, "No local changes") {
				return []string{"ok (nothing to stash)"}
			}
		}
		return []string{"ok stash " + sub}
	})
}

type gitWorktreeList struct{}

func (gitWorktreeList) Name() string { return "git-worktree-list" }

func (gitWorktreeList) Rewrite(argv []string) []string { return argv }

func (gitWorktreeList) NewCompactor(argv []string) Compactor {
	home, _ := os.UserHomeDir()
	return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
		if exitCode != 0 {
			return nil
		}
		var out []string
		for _, line := range stdout {
			if strings.TrimSpace(line) == "" {
				continue
			}
			parts := strings.Fields(line)
			if len(parts) >= 3 {
				path := parts[0]
				if home != "" && strings.HasPrefix(path, home) {
					path = "~" + path[len(home):]
				}
				out = append(out, path+" "+parts[1]+" "+strings.Join(parts[2:], " "))
			} else {
				out = append(out, line)
			}
		}
		return out
	})
}

type gitAdd struct{}

func (gitAdd) Name() string { return "git-add" }

func (gitAdd) Rewrite(argv []string) []string { return argv }

func (gitAdd) NewCompactor(argv []string) Compactor {
	return newSummarizeCompactor(summarizeAction("git add"))
}

type gitCommit struct{}

func (gitCommit) Name() string { return "git-commit" }

func (gitCommit) Rewrite(argv []string) []string { return argv }

func (gitCommit) NewCompactor(argv []string) Compactor {
	return newSummarizeCompactor(func(stdout, stderr []string, exitCode int) []string {
		all := append(append([]string{}, stdout...), stderr...)
		if exitCode != 0 {
			for _, line := range all {
				if strings.Contains(line, "nothing to commit") {
					return []string{"ok (nothing to commit)"}
				}
			}
			out := []string{"FAILED: git commit"}
			out = append(out, stderr...)
			out = append(out, stdout...)
			return out
		}
		// First line looks like "[main abc1234] message".
		if len(stdout) > 0 {
			if hash := commitHash(stdout[0]); hash != "" {
				return []string{"ok " + hash}
			}
		}
		return []string{"ok"}
	})
}

func commitHash(line string) string {
	if !strings.HasPrefix(line, "[") {
		return ""
	}
	head, _, ok := strings.Cut(line, "]")
	if !ok {
		return ""
	}
	fields := strings.Fields(strings.TrimPrefix(head, "["))
	if len(fields) < 2 {
		return ""
	}
	hash := fields[len(fields)-1]
	if len(hash) < 7 {
		return ""
	}
	return hash[:7]
}
