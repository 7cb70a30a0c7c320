package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedLines(t *testing.T, c Compactor, lines []string, src Stream) {
	t.Helper()
	for _, line := range lines {
		c.Feed(line, src)
	}
}

func TestGitStatusRewrite(t *testing.T) {
	bare := gitStatus{}.Rewrite([]string{"git", "status"})
	assert.Equal(t, []string{"git", "status", "--porcelain=v1", "-b"}, bare)

	withArgs := gitStatus{}.Rewrite([]string{"git", "status", "--short"})
	assert.Equal(t, []string{"git", "status", "--short"}, withArgs)
}

func TestGitStatusCleanTree(t *testing.T) {
	c := gitStatus{}.NewCompactor([]string{"git", "status", "--porcelain=v1", "-b"})
	c.Feed("## main...origin/main", Stdout)
	res := c.Finalize(0, false)
	require.Len(t, res.Lines, 2)
	assert.Equal(t, "on main...origin/main", res.Lines[0])
	assert.Equal(t, "Clean working tree", res.Lines[1])
}

func TestGitStatusGroups(t *testing.T) {
	c := gitStatus{}.NewCompactor([]string{"git", "status", "--porcelain=v1", "-b"})
	feedLines(t, c, []string{
		"## main",
		"M  staged.go",
		"A  added.go",
		" M modified.go",
		"?? untracked.txt",
	}, Stdout)
	res := c.Finalize(0, false)
	joined := strings.Join(res.Lines, "\n")
	assert.Contains(t, joined, "on main")
	assert.Contains(t, joined, "Staged: 2 files")
	assert.Contains(t, joined, "staged.go")
	assert.Contains(t, joined, "added.go")
	assert.Contains(t, joined, "Modified: 1 files")
	assert.Contains(t, joined, "Untracked: 1 files")
	assert.NotContains(t, joined, "Conflicts")
}

func TestGitStatusGroupTruncation(t *testing.T) {
	c := gitStatus{}.NewCompactor([]string{"git", "status", "--porcelain=v1", "-b"})
	c.Feed("## main", Stdout)
	for _, f := range []string{"a.go", "b.go", "c.go", "d.go", "e.go", "f.go", "g.go"} {
		c.Feed("M  "+f, Stdout)
	}
	res := c.Finalize(0, false)
	joined := strings.Join(res.Lines, "\n")
	assert.Contains(t, joined, "Staged: 7 files")
	assert.Contains(t, joined, "... +2 more")
	assert.NotContains(t, joined, "f.go")
}

func TestDiffCompaction(t *testing.T) {
	c := gitDiff{maxLines: 100, name: "git-diff"}.NewCompactor([]string{"git", "diff"})
	feedLines(t, c, []string{
		"diff --git a/foo.go b/foo.go",
		"index 1234567..89abcde 100644",
		"--- a/foo.go",
		"+++ b/foo.go",
		"@@ -1,3 +1,4 @@",
		" func main() {",
		`+	fmt.Println("hello")`,
		" }",
	}, Stdout)
	res := c.Finalize(0, false)
	joined := strings.Join(res.Lines, "\n")
	assert.Contains(t, joined, "=== foo.go")
	assert.Contains(t, joined, "@@ -1,3 +1,4 @@")
	assert.Contains(t, joined, "hello")
	assert.Contains(t, joined, "+1 -0")
	assert.NotContains(t, joined, "index 1234567")
	assert.Greater(t, res.InputUnits, res.OutputUnits)
}

func TestDiffHunkTruncation(t *testing.T) {
	c := gitDiff{maxLines: 100, name: "git-diff"}.NewCompactor([]string{"git", "diff"})
	c.Feed("diff --git a/big.go b/big.go", Stdout)
	c.Feed("@@ -1,40 +1,40 @@", Stdout)
	for i := 0; i < 25; i++ {
		c.Feed("+line", Stdout)
	}
	res := c.Finalize(0, false)
	joined := strings.Join(res.Lines, "\n")
	assert.Contains(t, joined, "... (truncated)")
	assert.Contains(t, joined, "+25 -0")

	kept := 0
	for _, l := range res.Lines {
		if strings.TrimSpace(l) == "+line" {
			kept++
		}
	}
	assert.Equal(t, maxHunkLines, kept)
}

func TestDiffGlobalCap(t *testing.T) {
	c := gitDiff{maxLines: 20, name: "git-diff"}.NewCompactor([]string{"git", "diff"})
	for f := 0; f < 10; f++ {
		c.Feed("diff --git a/f.go b/f.go", Stdout)
		c.Feed("@@ -1 +1 @@", Stdout)
		c.Feed("+x", Stdout)
		c.Feed("-y", Stdout)
	}
	res := c.Finalize(0, false)
	assert.Contains(t, strings.Join(res.Lines, "\n"), "... (more changes truncated)")
	assert.LessOrEqual(t, len(res.Lines), 22)
}

func TestDiffStatFlagDisablesCompaction(t *testing.T) {
	c := gitDiff{maxLines: 100, name: "git-diff"}.NewCompactor([]string{"git", "diff", "--stat"})
	c.Feed(" foo.go | 2 +-", Stdout)
	res := c.Finalize(0, false)
	assert.Equal(t, []string{" foo.go | 2 +-"}, res.Lines)
	assert.Equal(t, res.InputUnits, res.OutputUnits)
}

func TestGitLogRewrite(t *testing.T) {
	out := gitLog{}.Rewrite([]string{"git", "log"})
	joined := strings.Join(out, " ")
	assert.Contains(t, joined, "--pretty=format:%h %s (%ar) <%an>")
	assert.Contains(t, joined, "-10")
	assert.Contains(t, joined, "--no-merges")

	custom := gitLog{}.Rewrite([]string{"git", "log", "--oneline", "-5", "--merges"})
	joined = strings.Join(custom, " ")
	assert.NotContains(t, joined, "--pretty=format")
	assert.NotContains(t, joined, "-10")
	assert.NotContains(t, joined, "--no-merges")
}

func TestBranchListSummary(t *testing.T) {
	c := gitBranch{}.NewCompactor([]string{"git", "branch", "-a", "--no-color"})
	feedLines(t, c, []string{
		"* main",
		"  feature/auth",
		"  remotes/origin/HEAD -> origin/main",
		"  remotes/origin/main",
		"  remotes/origin/feature/auth",
		"  remotes/origin/release/v2",
	}, Stdout)
	res := c.Finalize(0, false)
	joined := strings.Join(res.Lines, "\n")
	assert.Contains(t, joined, "* main")
	assert.Contains(t, joined, "feature/auth")
	assert.Contains(t, joined, "remote-only (1):")
	assert.Contains(t, joined, "release/v2")
	assert.NotContains(t, joined, "HEAD")
}

func TestPushSummaries(t *testing.T) {
	c := gitPush{}.NewCompactor([]string{"git", "push"})
	c.Feed("Everything up-to-date", Stderr)
	res := c.Finalize(0, false)
	assert.Equal(t, []string{"ok (up-to-date)"}, res.Lines)

	c = gitPush{}.NewCompactor([]string{"git", "push"})
	c.Feed("   abc1234..def5678  main -> main", Stderr)
	res = c.Finalize(0, false)
	assert.Equal(t, []string{"ok main"}, res.Lines)

	c = gitPush{}.NewCompactor([]string{"git", "push"})
	c.Feed("error: failed to push some refs", Stderr)
	res = c.Finalize(1, false)
	require.NotEmpty(t, res.Lines)
	assert.Equal(t, "FAILED: git push", res.Lines[0])
	assert.Contains(t, strings.Join(res.Lines, "\n"), "failed to push")
}

func TestPullShortstat(t *testing.T) {
	c := gitPull{}.NewCompactor([]string{"git", "pull"})
	feedLines(t, c, []string{
		"Updating abc1234..def5678",
		"Fast-forward",
		" 3 files changed, 10 insertions(+), 2 deletions(-)",
	}, Stdout)
	res := c.Finalize(0, false)
	assert.Equal(t, []string{"ok 3 files +10 -2"}, res.Lines)
}

func TestFetchRefCount(t *testing.T) {
	c := gitFetch{}.NewCompactor([]string{"git", "fetch"})
	c.Feed("From github.com:org/repo", Stderr)
	c.Feed(" * [new branch] feat -> origin/feat", Stderr)
	c.Feed("   abc..def  main -> origin/main", Stderr)
	res := c.Finalize(0, false)
	assert.Equal(t, []string{"ok fetched (2 new refs)"}, res.Lines)
}

func TestStashListFilter(t *testing.T) {
	c := gitStashList{}.NewCompactor([]string{"git", "stash", "list"})
	c.Feed("stash@{0}: WIP on main: abc1234 fix login", Stdout)
	c.Feed("stash@{1}: On feature: def5678 wip", Stdout)
	res := c.Finalize(0, false)
	assert.Equal(t, []string{
		"stash@{0}: abc1234 fix login",
		"stash@{1}: def5678 wip",
	}, res.Lines)

	empty := gitStashList{}.NewCompactor([]string{"git", "stash", "list"})
	res = empty.Finalize(0, false)
	assert.Equal(t, []string{"No stashes"}, res.Lines)
}

func TestWorktreeListHomeRelative(t *testing.T) {
	c := gitWorktreeList{}.NewCompactor([]string{"git", "worktree", "list"})
	c.Feed("/srv/project  abc1234 [main]", Stdout)
	res := c.Finalize(0, false)
	require.Len(t, res.Lines, 1)
	assert.Contains(t, res.Lines[0], "abc1234 [main]")
}

func TestCommitHashExtraction(t *testing.T) {
	assert.Equal(t, "abc1234", commitHash("[main abc1234] fix the thing"))
	assert.Equal(t, "def5678", commitHash("[feature/x def56789] msg"))
	assert.Equal(t, "", commitHash("no bracket here"))

	c := gitCommit{}.NewCompactor([]string{"git", "commit", "-m", "x"})
	c.Feed("[main abc1234] fix the thing", Stdout)
	res := c.Finalize(0, false)
	assert.Equal(t, []string{"ok abc1234"}, res.Lines)

	c = gitCommit{}.NewCompactor([]string{"git", "commit", "-m", "x"})
	c.Feed("nothing to commit, working tree clean", Stdout)
	res = c.Finalize(1, false)
	assert.Equal(t, []string{"ok (nothing to commit)"}, res.Lines)
}

func TestParseShortstat(t *testing.T) {
	files, ins, del := parseShortstat([]string{" 3 files changed, 10 insertions(+), 2 deletions(-)"})
	assert.Equal(t, 3, files)
	assert.Equal(t, 10, ins)
	assert.Equal(t, 2, del)

	files, ins, del = parseShortstat([]string{" 1 file changed, 1 insertion(+)"})
	assert.Equal(t, 1, files)
	assert.Equal(t, 1, ins)
	assert.Equal(t, 0, del)
}
