package output

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/dshills/facet/internal/review"
)

func TestJSONWriter(t *testing.T) {
	out := render(t, &JSONWriter{}, sampleReport())

	var parsed map[string]any
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	for _, key := range []string{"average_score", "total_issues", "high_severity_issues", "issues", "summaries", "file_count", "perspective_count", "run_id"} {
		if _, ok := parsed[key]; !ok {
			t.Errorf("JSON report missing %q", key)
		}
	}

	var report review.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatal(err)
	}
	if report.AverageScore != 62.5 || len(report.Issues) != 3 || *report.Issues[0].Line != 42 {
		t.Errorf("round trip mismatch: %+v", report)
	}
	if report.Issues[1].Line != nil {
		t.Error("absent line should stay absent")
	}
}

func TestYAMLWriter(t *testing.T) {
	out := render(t, &YAMLWriter{}, sampleReport())

	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("Output is not valid YAML: %v", err)
	}
	if parsed["average_score"] != 62.5 {
		t.Errorf("average_score = %v", parsed["average_score"])
	}
	if !strings.Contains(out, "severity: HIGH") {
		t.Errorf("YAML missing issue severity:\n%s", out)
	}
}

func TestMarkdownWriter(t *testing.T) {
	out := render(t, &MarkdownWriter{}, sampleReport())

	for _, want := range []string{
		"# Code Review Report",
		"**Average Score:** 62.5/100",
		"**Total Issues:** 3",
		"| High | 1 |",
		"<summary>:red_circle: HIGH (1)</summary>",
		"- **db/query.py**:42 (security) - SQL built from user input",
		"  - Fix: Use parameterized queries",
		"- **app.py** (quality) - Function is too long",
		"## Failures",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_CodeFix(t *testing.T) {
	r := sampleReport()
	r.Issues[0].Fix = "cursor.execute(q, (user_id,)) == safe"
	out := render(t, &MarkdownWriter{}, r)
	if !strings.Contains(out, "```python") {
		t.Errorf("expected fenced python fix:\n%s", out)
	}
}

func TestMarkdownWriter_CapsPerSeverity(t *testing.T) {
	r := sampleReport()
	r.Issues = nil
	for i := 0; i < 8; i++ {
		r.Issues = append(r.Issues, review.Issue{Severity: review.SeverityLow, Message: "m", File: "a.go"})
	}
	out := render(t, &MarkdownWriter{}, r)
	if n := strings.Count(out, "- **a.go**"); n != mdIssuesPerSeverity {
		t.Errorf("rendered %d issues, want %d", n, mdIssuesPerSeverity)
	}
	if !strings.Contains(out, "LOW (8)") {
		t.Error("section count should report all issues")
	}
}

func TestMarkdownWriter_Failed(t *testing.T) {
	out := render(t, &MarkdownWriter{}, failedReport())
	if !strings.HasPrefix(out, "# Review Failed\n\nNo valid review results") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestGitHubWriter(t *testing.T) {
	out := render(t, &GitHubWriter{Actor: "octocat"}, sampleReport())

	for _, want := range []string{
		"## ⚠️ Facet Code Review Results",
		"**Score:** 62.5/100 | **Issues Found:** 3 (1 high severity)",
		"**Files Reviewed:** 2 | **Perspectives:** 2",
		"- **db/query.py** (line 42)\n  - SQL built from user input\n  - 💡 *Use parameterized queries*",
		"- **Security:** One injection risk",
		"*Review completed at 2025-03-01T12:00:00Z by @octocat*",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("comment missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "Function is too long") {
		t.Error("only HIGH issues belong in the comment")
	}
}

func TestGitHubWriter_Limits(t *testing.T) {
	r := sampleReport()
	r.Issues = nil
	r.Summaries = nil
	for i := 0; i < 7; i++ {
		r.Issues = append(r.Issues, review.Issue{Severity: review.SeverityHigh, Message: "m", File: "x.go"})
		r.Summaries = append(r.Summaries, review.SummaryEntry{Perspective: "security", File: "x.go", Summary: "s"})
	}
	out := render(t, &GitHubWriter{}, r)
	if n := strings.Count(out, "- **x.go**"); n != githubHighIssues {
		t.Errorf("high issues = %d, want %d", n, githubHighIssues)
	}
	if n := strings.Count(out, "- **Security:**"); n != githubSummaries {
		t.Errorf("summaries = %d, want %d", n, githubSummaries)
	}
	if !strings.Contains(out, "by @facet*") {
		t.Error("default actor missing")
	}
}

func TestScoreEmoji(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{95, "✅"}, {70, "✅"}, {69.9, "⚠️"}, {50, "⚠️"}, {49.9, "❌"},
	}
	for _, tt := range tests {
		if got := scoreEmoji(tt.score); got != tt.want {
			t.Errorf("scoreEmoji(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestGitHubWriter_Failed(t *testing.T) {
	out := render(t, &GitHubWriter{}, failedReport())
	if out != "❌ **Review Failed:** No valid review results\n" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestTableWriter(t *testing.T) {
	out := render(t, &TableWriter{}, sampleReport())
	upper := strings.ToUpper(out)
	for _, want := range []string{"SEVERITY", "PERSPECTIVE", "DB/QUERY.PY", "42"} {
		if !strings.Contains(upper, want) {
			t.Errorf("table missing %q\n%s", want, out)
		}
	}
	if !strings.HasPrefix(out, "Score 62.5/100, 3 issues (1 high)") {
		t.Errorf("unexpected header: %q", strings.SplitN(out, "\n", 2)[0])
	}
}

func TestSARIFWriter(t *testing.T) {
	out := render(t, &SARIFWriter{}, sampleReport())

	var sarif sarifLog
	if err := json.Unmarshal([]byte(out), &sarif); err != nil {
		t.Fatalf("Invalid SARIF JSON: %v", err)
	}
	if sarif.Version != "2.1.0" || len(sarif.Runs) != 1 {
		t.Fatalf("unexpected log: %+v", sarif)
	}
	run := sarif.Runs[0]
	if len(run.Results) != 3 {
		t.Fatalf("Results count = %d, want 3", len(run.Results))
	}
	if len(run.Tool.Driver.Rules) != 2 {
		t.Errorf("Rules count = %d, want 2", len(run.Tool.Driver.Rules))
	}
	first := run.Results[0]
	if first.RuleID != "facet/security" || first.Level != "error" {
		t.Errorf("first result = %+v", first)
	}
	if first.Locations[0].PhysicalLocation.Region == nil || first.Locations[0].PhysicalLocation.Region.StartLine != 42 {
		t.Error("expected region at line 42")
	}
	if run.Results[1].Locations[0].PhysicalLocation.Region != nil {
		t.Error("issue without a line should have no region")
	}
	if run.Results[2].Level != "note" {
		t.Errorf("LOW level = %q, want note", run.Results[2].Level)
	}
	if len(run.Invocations) != 1 || len(run.Invocations[0].Notifications) != 1 {
		t.Errorf("expected one failure notification, got %+v", run.Invocations)
	}
}

func TestSARIFWriter_Empty(t *testing.T) {
	out := render(t, &SARIFWriter{}, failedReport())
	var sarif sarifLog
	if err := json.Unmarshal([]byte(out), &sarif); err != nil {
		t.Fatal(err)
	}
	if len(sarif.Runs[0].Results) != 0 || len(sarif.Runs[0].Tool.Driver.Rules) != 0 {
		t.Error("expected no results or rules")
	}
	if sarif.Runs[0].Invocations[0].ExecutionSuccessful {
		t.Error("failed report should not be successful")
	}
}
