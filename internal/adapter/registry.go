package adapter

import "strings"

// Options tunes the default registry.
type Options struct {
	// MaxDiffLines caps the compacted form of git diff and git show.
	// Zero means the built-in default.
	MaxDiffLines int
	// Disabled lists adapter names to leave out; their commands fall
	// back to passthrough.
	Disabled []string
}

type entry struct {
	prefix  []string
	adapter Adapter
}

// Registry maps command prefixes to adapters. Resolution picks the
// longest registered prefix matching the invocation; ties go to the
// earliest registration. Programs with no match get the passthrough
// adapter, so resolution is total.
type Registry struct {
	entries  []entry
	fallback Adapter
}

// NewRegistry returns an empty registry with a passthrough fallback.
func NewRegistry() *Registry {
	return &Registry{fallback: Passthrough{}}
}

// Register binds a space-separated command prefix ("git stash list") to
// an adapter.
func (r *Registry) Register(prefix string, a Adapter) {
	r.entries = append(r.entries, entry{prefix: strings.Fields(prefix), adapter: a})
}

// Resolve picks the adapter for a program and its arguments. Flag
// arguments are skipped when building the match path so "git -C x status"
// still resolves the status adapter.
func (r *Registry) Resolve(program string, args []string) Adapter {
	path := []string{program}
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			continue
		}
		path = append(path, a)
		if len(path) >= 4 {
			break
		}
	}

	var best Adapter
	bestLen := 0
	for _, e := range r.entries {
		if len(e.prefix) > len(path) || len(e.prefix) <= bestLen {
			continue
		}
		match := true
		for i, p := range e.prefix {
			if path[i] != p {
				match = false
				break
			}
		}
		if match {
			best = e.adapter
			bestLen = len(e.prefix)
		}
	}
	if best == nil {
		return r.fallback
	}
	return best
}

// DefaultRegistry builds the full adapter set.
func DefaultRegistry(opts Options) *Registry {
	if opts.MaxDiffLines <= 0 {
		opts.MaxDiffLines = defaultMaxDiffLines
	}
	disabled := make(map[string]bool, len(opts.Disabled))
	for _, name := range opts.Disabled {
		disabled[name] = true
	}

	r := NewRegistry()
	add := func(prefix string, a Adapter) {
		if !disabled[a.Name()] {
			r.Register(prefix, a)
		}
	}

	add("git status", gitStatus{})
	add("git diff", gitDiff{maxLines: opts.MaxDiffLines, name: "git-diff"})
	add("git show", gitDiff{maxLines: opts.MaxDiffLines, name: "git-show"})
	add("git log", gitLog{})
	add("git branch", gitBranch{})
	add("git push", gitPush{})
	add("git pull", gitPull{})
	add("git fetch", gitFetch{})
	add("git stash", gitStashMutate{})
	add("git stash list", gitStashList{})
	add("git stash show", gitDiff{maxLines: opts.MaxDiffLines, name: "git-stash-show"})
	add("git worktree list", gitWorktreeList{})
	add("git add", gitAdd{})
	add("git commit", gitCommit{})

	add("pnpm list", pnpmList{})
	add("pnpm ls", pnpmList{})
	add("pnpm outdated", pnpmOutdated{})
	add("pnpm install", pnpmInstall{})
	add("pnpm add", pnpmInstall{})

	add("deno", denoAdapter{})
	add("nx", nxAdapter{})
	add("pnpm nx", nxAdapter{})
	add("supabase", supabaseAdapter{})

	for _, prefix := range ghJSONPrefixes() {
		add(prefix, ghAdapter{})
	}

	return r
}
