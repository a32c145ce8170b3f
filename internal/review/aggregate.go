package review

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultMaxIssues caps the issue list exposed in a report.
const DefaultMaxIssues = 20

// ErrNoResults is the report error when no task succeeded.
const ErrNoResults = "No valid review results"

// Aggregator reduces outcomes to a Report.
type Aggregator struct {
	// MaxIssues caps Report.Issues. Zero means DefaultMaxIssues.
	MaxIssues int
	// Tool, Version and Model are copied into the report header.
	Tool    string
	Version string
	Model   string
	// Now stamps the report. Defaults to time.Now.
	Now func() time.Time
}

// Aggregate reduces outcomes with default options.
func Aggregate(outcomes []Outcome) Report {
	return Aggregator{}.Aggregate(outcomes)
}

// Aggregate builds the report. Outcomes are ordered by sequence number
// first, so the result does not depend on completion order.
func (a Aggregator) Aggregate(outcomes []Outcome) Report {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	maxIssues := a.MaxIssues
	if maxIssues <= 0 {
		maxIssues = DefaultMaxIssues
	}

	ordered := make([]Outcome, len(outcomes))
	copy(ordered, outcomes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Seq < ordered[j].Seq })

	ts := now().UTC()
	report := Report{
		Tool:      a.Tool,
		Version:   a.Version,
		Model:     a.Model,
		RunID:     newRunID(ts),
		TaskCount: len(ordered),
		Issues:    []Issue{},
		Summaries: []SummaryEntry{},
		Timestamp: ts,
	}

	var (
		issues    []Issue
		scoreSum  int
		successes int
	)
	files := make(map[string]bool)
	perspectives := make(map[string]bool)
	for _, o := range ordered {
		if !o.OK() {
			if o.Failure != nil {
				report.Failures = append(report.Failures, *o.Failure)
			}
			continue
		}
		r := o.Result
		successes++
		scoreSum += r.Score
		files[r.File] = true
		perspectives[string(r.Perspective)] = true
		if r.Cached {
			report.CachedCount++
		}
		if r.Degraded {
			report.DegradedCount++
		}
		for _, issue := range r.Issues {
			issue.File = r.File
			issue.Perspective = r.Perspective
			issues = append(issues, issue)
		}
		report.Summaries = append(report.Summaries, SummaryEntry{
			Perspective: r.Perspective,
			File:        r.File,
			Summary:     r.Summary,
		})
	}

	if successes == 0 {
		report.Success = false
		report.Error = ErrNoResults
		return report
	}

	sort.SliceStable(issues, func(i, j int) bool {
		return SeverityRank(issues[i].Severity) < SeverityRank(issues[j].Severity)
	})

	for _, issue := range issues {
		if issue.Severity == SeverityHigh {
			report.HighSeverityIssues++
		}
	}

	report.Success = true
	report.AverageScore = math.Round(float64(scoreSum)/float64(successes)*10) / 10
	report.TotalIssues = len(issues)
	if len(issues) > maxIssues {
		issues = issues[:maxIssues]
	}
	report.Issues = append(report.Issues, issues...)
	report.FileCount = len(files)
	report.PerspectiveCount = len(perspectives)
	return report
}

func newRunID(t time.Time) string {
	entropy := rand.New(rand.NewSource(t.UnixNano()))
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(entropy, 0)).String()
}
