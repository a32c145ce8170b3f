package output

import (
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/facet/internal/review"
)

// TextWriter outputs a human-readable terminal report.
type TextWriter struct {
	// Color forces ANSI color on or off regardless of the terminal.
	Color bool
}

func (t *TextWriter) paint(attrs ...color.Attribute) func(a ...any) string {
	c := color.New(attrs...)
	if t.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func (t *TextWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	bold := t.paint(color.Bold)
	faint := t.paint(color.Faint)

	ew.printf("%s\n", bold("Facet Code Review"))
	if report.RunID != "" {
		ew.printf("Run: %s", report.RunID)
		if report.Model != "" {
			ew.printf(" (model: %s)", report.Model)
		}
		ew.println("")
	}
	ew.println(strings.Repeat("─", 60))

	if !report.Success {
		ew.printf("%s %s\n", t.paint(color.FgHiRed, color.Bold)("Review failed:"), report.Error)
		t.writeFailures(ew, report.Failures)
		return ew.err
	}

	ew.printf("Score: %s/100 | Issues: %d (%d high) | Files: %d | Perspectives: %d\n",
		t.scoreColor(report.AverageScore), report.TotalIssues, report.HighSeverityIssues,
		report.FileCount, report.PerspectiveCount)
	ew.println(strings.Repeat("─", 60))

	if len(report.Issues) == 0 {
		ew.println("\nNo issues found. Looks good!")
	}

	grouped := issuesBySeverity(report.Issues)
	for _, sev := range severityOrder(report.Issues) {
		issues := grouped[sev]
		if len(issues) == 0 {
			continue
		}
		ew.printf("\n%s %s (%d)\n", t.severityLabel(sev), string(sev), len(issues))
		ew.println(strings.Repeat("─", 40))

		for _, i := range issues {
			ew.printf("\n  %s  [%s]\n", issueLocation(i), i.Perspective)
			for _, line := range wrapText(i.Message, 70) {
				ew.printf("    %s\n", line)
			}
			if i.Fix != "" {
				ew.println("  Fix:")
				for _, line := range wrapText(i.Fix, 70) {
					ew.printf("    %s\n", line)
				}
			}
		}
	}
	if report.TotalIssues > len(report.Issues) {
		ew.printf("\n%s\n", faint("... and more issues not shown"))
	}

	if len(report.Summaries) > 0 {
		ew.printf("\n%s\n", bold("Summaries"))
		for _, s := range report.Summaries {
			ew.printf("  %s %s: %s\n", titleCase(string(s.Perspective)), faint(s.File), s.Summary)
		}
	}

	t.writeFailures(ew, report.Failures)

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("%d tasks (%d cached, %d degraded, %d failed)\n",
		report.TaskCount, report.CachedCount, report.DegradedCount, len(report.Failures))

	return ew.err
}

func (t *TextWriter) writeFailures(ew *errWriter, failures []review.Failure) {
	if len(failures) == 0 {
		return
	}
	yellow := t.paint(color.FgHiYellow)
	ew.printf("\n%s\n", yellow("Failures"))
	for _, f := range failures {
		ew.printf("  %s [%s]: %s\n", f.File, f.Perspective, f.Reason)
	}
}

func (t *TextWriter) scoreColor(score float64) string {
	s := formatScore(score)
	switch {
	case score >= 70:
		return t.paint(color.FgHiGreen)(s)
	case score >= 50:
		return t.paint(color.FgHiYellow)(s)
	default:
		return t.paint(color.FgHiRed)(s)
	}
}

func (t *TextWriter) severityLabel(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return t.paint(color.FgHiRed)("[!!]")
	case review.SeverityMedium:
		return t.paint(color.FgHiYellow)("[!]")
	case review.SeverityLow:
		return t.paint(color.FgHiBlue)("[-]")
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
