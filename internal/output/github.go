package output

import (
	"io"
	"time"

	"github.com/dshills/facet/internal/review"
)

const (
	githubHighIssues = 5
	githubSummaries  = 3
	defaultActor     = "facet"
)

// GitHubWriter renders a pull request comment.
type GitHubWriter struct {
	// Actor is credited in the footer. Empty means "facet".
	Actor string
}

func (g *GitHubWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}

	if !report.Success {
		ew.printf("❌ **Review Failed:** %s\n", report.Error)
		return ew.err
	}

	ew.printf("## %s Facet Code Review Results\n\n", scoreEmoji(report.AverageScore))
	ew.printf("**Score:** %s/100 | **Issues Found:** %d (%d high severity)\n",
		formatScore(report.AverageScore), report.TotalIssues, report.HighSeverityIssues)
	ew.printf("**Files Reviewed:** %d | **Perspectives:** %d\n\n", report.FileCount, report.PerspectiveCount)

	var high []review.Issue
	for _, i := range report.Issues {
		if i.Severity == review.SeverityHigh && len(high) < githubHighIssues {
			high = append(high, i)
		}
	}
	if len(high) > 0 {
		ew.printf("### 🔴 High Severity Issues\n\n")
		for _, i := range high {
			ew.printf("- **%s**", i.File)
			if i.Line != nil {
				ew.printf(" (line %d)", *i.Line)
			}
			ew.printf("\n  - %s\n", i.Message)
			if i.Fix != "" {
				ew.printf("  - 💡 *%s*\n", i.Fix)
			}
		}
	}

	if len(report.Summaries) > 0 {
		ew.printf("\n### 📊 Review Summaries\n\n")
		summaries := report.Summaries
		if len(summaries) > githubSummaries {
			summaries = summaries[:githubSummaries]
		}
		for _, s := range summaries {
			ew.printf("- **%s:** %s\n", titleCase(string(s.Perspective)), s.Summary)
		}
	}

	actor := g.Actor
	if actor == "" {
		actor = defaultActor
	}
	ew.printf("\n---\n*Review completed at %s by @%s*\n", report.Timestamp.Format(time.RFC3339), actor)
	return ew.err
}

func scoreEmoji(score float64) string {
	switch {
	case score >= 70:
		return "✅"
	case score >= 50:
		return "⚠️"
	default:
		return "❌"
	}
}
