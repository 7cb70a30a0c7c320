package adapter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ghAdapter rewrites selected gh subcommands to request JSON and renders
// a digest from it. The JSON form is both smaller to summarize and
// stable across gh versions. pr checks and run view stay text-based
// because gh does not offer --json there in the same shape.
type ghAdapter struct{}

func (ghAdapter) Name() string { return "gh" }

// ghFields maps the JSON-capable subcommand paths to the --json field
// list injected at rewrite time.
var ghFields = map[string]string{
	"pr list":    "number,title,state,author,updatedAt",
	"pr view":    "number,title,state,author,body,url,mergeable,reviews,statusCheckRollup",
	"pr status":  "currentBranch,createdBy,reviewDecision,statusCheckRollup",
	"issue list": "number,title,state,author",
	"issue view": "number,title,state,author,body,url",
	"run list":   "databaseId,name,status,conclusion,createdAt",
	"repo view":  "name,owner,description,url,stargazerCount,forkCount,isPrivate",
}

// ghTextSummaries holds the handled subcommands that stay text-based.
var ghTextSummaries = map[string]func(stdout, stderr []string, exitCode int) []string{
	"pr checks": summarizePRChecks,
	"run view":  summarizeRunView,
}

func ghJSONPrefixes() []string {
	return []string{
		"gh pr list", "gh pr view", "gh pr checks", "gh pr status",
		"gh issue list", "gh issue view",
		"gh run list", "gh run view",
		"gh repo view",
	}
}

// ghPath extracts the "pr list" style subcommand path from argv.
func ghPath(argv []string) string {
	var parts []string
	for _, a := range argsAfter(argv, "gh") {
		if strings.HasPrefix(a, "-") {
			continue
		}
		parts = append(parts, a)
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, " ")
}

func (ghAdapter) Rewrite(argv []string) []string {
	path := ghPath(argv)
	fields, ok := ghFields[path]
	if !ok || hasAny(argv, "--json") {
		return argv
	}
	out := append(append([]string{}, argv...), "--json", fields)
	if path == "run list" && !hasAny(argv, "--limit", "-L") {
		out = append(out, "--limit", "10")
	}
	return out
}

func (ghAdapter) NewCompactor(argv []string) Compactor {
	path := ghPath(argv)
	if summarize, ok := ghTextSummaries[path]; ok {
		return newSummarizeCompactor(summarize)
	}
	render := ghRenderers[path]
	if render == nil || !hasAny(argv, "--json") {
		return Passthrough{}.NewCompactor(argv)
	}
	return &ghJSONCompactor{render: render}
}

// ghJSONCompactor buffers stdout until EOF, then parses it as JSON. Any
// parse failure degrades to the raw lines.
type ghJSONCompactor struct {
	render func(v any) []string
	stdout []string
	stderr []string
	input  int
}

func (c *ghJSONCompactor) Feed(line string, src Stream) {
	c.input += EstimateUnits(line)
	if src == Stderr {
		c.stderr = append(c.stderr, line)
	} else {
		c.stdout = append(c.stdout, line)
	}
}

func (c *ghJSONCompactor) Finalize(exitCode int, aborted bool) Result {
	var lines []string
	if exitCode != 0 || aborted {
		lines = append(append(lines, c.stderr...), c.stdout...)
	} else {
		var v any
		if err := json.Unmarshal([]byte(strings.Join(c.stdout, "\n")), &v); err == nil {
			lines = c.render(v)
		}
		if lines == nil {
			lines = append(append(lines, c.stdout...), c.stderr...)
		}
	}
	return Result{Lines: lines, InputUnits: c.input, OutputUnits: unitsOf(lines)}
}

func (c *ghJSONCompactor) InputUnits() int { return c.input }

var ghRenderers = map[string]func(v any) []string{
	"pr list":    renderPRList,
	"pr view":    renderPRView,
	"pr status":  renderPRStatus,
	"issue list": renderIssueList,
	"issue view": renderIssueView,
	"run list":   renderRunList,
	"repo view":  renderRepoView,
}

func jsonStr(v any, keys ...string) string {
	for _, k := range keys[:len(keys)-1] {
		m, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		v = m[k]
	}
	if m, ok := v.(map[string]any); ok {
		if s, ok := m[keys[len(keys)-1]].(string); ok {
			return s
		}
	}
	return ""
}

func jsonNum(v any, key string) int64 {
	if m, ok := v.(map[string]any); ok {
		if f, ok := m[key].(float64); ok {
			return int64(f)
		}
	}
	return 0
}

func stateLetter(state string) string {
	switch state {
	case "OPEN":
		return "O"
	case "MERGED":
		return "M"
	case "CLOSED":
		return "C"
	default:
		return "?"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func renderPRList(v any) []string {
	prs, ok := v.([]any)
	if !ok {
		return nil
	}
	out := []string{"Pull Requests"}
	for i, pr := range prs {
		if i == 20 {
			out = append(out, fmt.Sprintf("  ... %d more", len(prs)-20))
			break
		}
		out = append(out, fmt.Sprintf("  %s #%d %s (%s)",
			stateLetter(jsonStr(pr, "state")),
			jsonNum(pr, "number"),
			truncate(jsonStr(pr, "title"), 60),
			jsonStr(pr, "author", "login")))
	}
	return out
}

func renderPRView(v any) []string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := []string{
		fmt.Sprintf("%s PR #%d: %s", stateLetter(jsonStr(v, "state")), jsonNum(v, "number"), jsonStr(v, "title")),
		"  " + jsonStr(v, "author", "login"),
		fmt.Sprintf("  %s | mergeable: %s", jsonStr(v, "state"), jsonStr(v, "mergeable")),
	}

	if reviews, ok := dig(m, "reviews", "nodes").([]any); ok {
		approved, changes := 0, 0
		for _, r := range reviews {
			switch jsonStr(r, "state") {
			case "APPROVED":
				approved++
			case "CHANGES_REQUESTED":
				changes++
			}
		}
		if approved > 0 || changes > 0 {
			out = append(out, fmt.Sprintf("  Reviews: %d approved, %d changes requested", approved, changes))
		}
	}

	if checks, ok := m["statusCheckRollup"].([]any); ok && len(checks) > 0 {
		passed, failed := 0, 0
		for _, c := range checks {
			switch {
			case jsonStr(c, "conclusion") == "SUCCESS" || jsonStr(c, "state") == "SUCCESS":
				passed++
			case jsonStr(c, "conclusion") == "FAILURE" || jsonStr(c, "state") == "FAILURE":
				failed++
			}
		}
		out = append(out, fmt.Sprintf("  Checks: %d/%d passed", passed, len(checks)))
		if failed > 0 {
			out = append(out, fmt.Sprintf("  %d checks failed", failed))
		}
	}

	out = append(out, "  "+jsonStr(v, "url"))

	if body, ok := m["body"].(string); ok && body != "" {
		shown := 0
		for _, line := range strings.Split(body, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			out = append(out, "  "+truncate(line, 80))
			shown++
			if shown == 3 {
				out = append(out, "  ... (full body truncated)")
				break
			}
		}
	}
	return out
}

func renderPRStatus(v any) []string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	created, _ := m["createdBy"].([]any)
	out := []string{fmt.Sprintf("Your PRs (%d):", len(created))}
	for i, pr := range created {
		if i == 5 {
			break
		}
		decision := jsonStr(pr, "reviewDecision")
		if decision == "" {
			decision = "PENDING"
		}
		out = append(out, fmt.Sprintf("  #%d %s [%s]", jsonNum(pr, "number"), truncate(jsonStr(pr, "title"), 50), decision))
	}
	return out
}

func renderIssueList(v any) []string {
	issues, ok := v.([]any)
	if !ok {
		return nil
	}
	out := []string{"Issues"}
	for i, issue := range issues {
		if i == 20 {
			out = append(out, fmt.Sprintf("  ... %d more", len(issues)-20))
			break
		}
		letter := "C"
		if jsonStr(issue, "state") == "OPEN" {
			letter = "O"
		}
		out = append(out, fmt.Sprintf("  %s #%d %s", letter, jsonNum(issue, "number"), truncate(jsonStr(issue, "title"), 60)))
	}
	return out
}

func renderIssueView(v any) []string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := []string{
		fmt.Sprintf("Issue #%d: %s", jsonNum(v, "number"), jsonStr(v, "title")),
		"  Author: @" + jsonStr(v, "author", "login"),
		"  Status: " + jsonStr(v, "state"),
		"  URL: " + jsonStr(v, "url"),
	}
	if body, ok := m["body"].(string); ok && body != "" {
		shown := 0
		for _, line := range strings.Split(body, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			out = append(out, "    "+truncate(line, 80))
			shown++
			if shown == 3 {
				break
			}
		}
	}
	return out
}

func renderRunList(v any) []string {
	runs, ok := v.([]any)
	if !ok {
		return nil
	}
	out := []string{"Workflow Runs"}
	for _, run := range runs {
		mark := "?"
		switch jsonStr(run, "conclusion") {
		case "success":
			mark = "ok"
		case "failure":
			mark = "FAIL"
		case "cancelled":
			mark = "cancelled"
		default:
			if jsonStr(run, "status") == "in_progress" {
				mark = "running"
			}
		}
		out = append(out, fmt.Sprintf("  %s %s [%d]", mark, truncate(jsonStr(run, "name"), 50), jsonNum(run, "databaseId")))
	}
	return out
}

func renderRepoView(v any) []string {
	visibility := "public"
	if m, ok := v.(map[string]any); ok {
		if private, _ := m["isPrivate"].(bool); private {
			visibility = "private"
		}
	}
	out := []string{
		fmt.Sprintf("%s/%s (%s)", jsonStr(v, "owner", "login"), jsonStr(v, "name"), visibility),
	}
	if desc := jsonStr(v, "description"); desc != "" {
		out = append(out, "  "+truncate(desc, 80))
	}
	out = append(out,
		fmt.Sprintf("  %d stars | %d forks", jsonNum(v, "stargazerCount"), jsonNum(v, "forkCount")),
		"  "+jsonStr(v, "url"))
	return out
}

func dig(m map[string]any, keys ...string) any {
	var v any = m
	for _, k := range keys {
		mm, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = mm[k]
	}
	return v
}

func summarizePRChecks(stdout, stderr []string, exitCode int) []string {
	passed, failed, pending := 0, 0, 0
	var failedChecks []string
	for _, line := range stdout {
		switch {
		case strings.Contains(line, "✓") || strings.Contains(line, "pass"):
			passed++
		case strings.Contains(line, "✗") || strings.Contains(line, "fail"):
			failed++
			failedChecks = append(failedChecks, strings.TrimSpace(line))
		case strings.Contains(line, "*") || strings.Contains(line, "pending"):
			pending++
		}
	}
	out := []string{fmt.Sprintf("Checks: %d passed, %d failed", passed, failed)}
	if pending > 0 {
		out = append(out, fmt.Sprintf("  pending: %d", pending))
	}
	if len(failedChecks) > 0 {
		out = append(out, "Failed checks:")
		for _, c := range failedChecks {
			out = append(out, "  "+c)
		}
	}
	if exitCode != 0 {
		out = append(out, stderr...)
	}
	return out
}

func summarizeRunView(stdout, stderr []string, exitCode int) []string {
	var out []string
	inJobs := false
	for _, line := range stdout {
		if strings.Contains(line, "JOBS") {
			inJobs = true
		}
		if inJobs {
			if strings.Contains(line, "✓") || strings.Contains(line, "success") {
				continue
			}
			if strings.Contains(line, "✗") || strings.Contains(line, "fail") {
				out = append(out, "FAIL "+strings.TrimSpace(line))
			}
		} else if strings.Contains(line, "Status:") || strings.Contains(line, "Conclusion:") {
			out = append(out, strings.TrimSpace(line))
		}
	}
	if exitCode != 0 {
		out = append(out, stderr...)
	}
	if len(out) == 0 {
		out = []string{"ok all jobs passed"}
	}
	return out
}
