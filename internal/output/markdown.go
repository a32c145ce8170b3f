package output

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dshills/facet/internal/review"
)

// mdIssuesPerSeverity caps each collapsible section.
const mdIssuesPerSeverity = 5

// MarkdownWriter outputs a standalone markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	if !report.Success {
		ew.printf("# Review Failed\n\n%s\n", report.Error)
		writeMarkdownFailures(ew, report.Failures)
		return ew.err
	}

	counts := review.CountSeverities(report.Issues)

	ew.printf("# Code Review Report\n\n")
	ew.printf("**Date:** %s  \n", report.Timestamp.Format(time.RFC3339))
	ew.printf("**Average Score:** %s/100  \n", formatScore(report.AverageScore))
	ew.printf("**Total Issues:** %d  \n", report.TotalIssues)
	ew.printf("**High Severity:** %d  \n\n", report.HighSeverityIssues)

	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| High | %d |\n", counts.High)
	ew.printf("| Medium | %d |\n", counts.Medium)
	ew.printf("| Low | %d |\n", counts.Low)
	if counts.Other > 0 {
		ew.printf("| Other | %d |\n", counts.Other)
	}
	ew.printf("\n## Issues by Severity\n\n")

	if len(report.Issues) == 0 {
		ew.println("No issues found. :white_check_mark:")
	}

	grouped := issuesBySeverity(report.Issues)
	for _, sev := range severityOrder(report.Issues) {
		issues := grouped[sev]
		if len(issues) == 0 {
			continue
		}
		ew.printf("<details>\n<summary>%s %s (%d)</summary>\n\n", mdSeverityIcon(sev), sev, len(issues))
		if len(issues) > mdIssuesPerSeverity {
			issues = issues[:mdIssuesPerSeverity]
		}
		for _, i := range issues {
			ew.printf("- **%s**", i.File)
			if i.Line != nil {
				ew.printf(":%d", *i.Line)
			}
			ew.printf(" (%s) - %s\n", i.Perspective, i.Message)
			if i.Fix != "" {
				if looksLikeCode(i.Fix) {
					ew.printf("\n  ```%s\n  %s\n  ```\n", inferLang(i.File), strings.ReplaceAll(i.Fix, "\n", "\n  "))
				} else {
					ew.printf("  - Fix: %s\n", i.Fix)
				}
			}
		}
		ew.printf("\n</details>\n\n")
	}

	if len(report.Summaries) > 0 {
		ew.printf("## Summaries\n\n")
		for _, s := range report.Summaries {
			ew.printf("- **%s** `%s`: %s\n", titleCase(string(s.Perspective)), s.File, s.Summary)
		}
		ew.println("")
	}

	writeMarkdownFailures(ew, report.Failures)
	return ew.err
}

func writeMarkdownFailures(ew *errWriter, failures []review.Failure) {
	if len(failures) == 0 {
		return
	}
	ew.printf("\n## Failures\n\n")
	for _, f := range failures {
		ew.printf("- `%s` (%s): %s\n", f.File, f.Perspective, f.Reason)
	}
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return ":red_circle:"
	case review.SeverityMedium:
		return ":orange_circle:"
	case review.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "return ", "def ", "class ", "import ",
		"{", "}", "=>", ":=", "==", "();",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

var fenceLang = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".rb":   "ruby",
	".cpp":  "cpp",
	".c":    "c",
	".cs":   "csharp",
}

func inferLang(path string) string {
	return fenceLang[strings.ToLower(filepath.Ext(path))]
}
