package review

import (
	"strings"
	"time"

	"github.com/dshills/facet/internal/perspective"
)

// Severity is an issue's severity as reported by the model. Values outside
// the three known levels are preserved and rank last.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// NormalizeSeverity trims and upper-cases s. An empty value becomes LOW.
func NormalizeSeverity(s string) Severity {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return SeverityLow
	}
	return Severity(s)
}

// SeverityRank returns a sort rank: lower ranks come first.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	default:
		return 3
	}
}

// Issue is a single problem reported under one perspective. File and
// Perspective are stamped during aggregation.
type Issue struct {
	Line        *int           `json:"line,omitempty" yaml:"line,omitempty"`
	Severity    Severity       `json:"severity" yaml:"severity"`
	Message     string         `json:"message" yaml:"message"`
	Fix         string         `json:"fix,omitempty" yaml:"fix,omitempty"`
	File        string         `json:"file,omitempty" yaml:"file,omitempty"`
	Perspective perspective.ID `json:"perspective,omitempty" yaml:"perspective,omitempty"`
}

// Result is the successful outcome of one task. A degraded result stands in
// for a reply that could not be parsed.
type Result struct {
	Perspective perspective.ID `json:"perspective"`
	File        string         `json:"file"`
	Issues      []Issue        `json:"issues"`
	Summary     string         `json:"summary"`
	Score       int            `json:"score"`
	Cached      bool           `json:"cached"`
	Degraded    bool           `json:"degraded,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Failure records a task that produced no result.
type Failure struct {
	File        string         `json:"file" yaml:"file"`
	Perspective perspective.ID `json:"perspective" yaml:"perspective"`
	Reason      string         `json:"reason" yaml:"reason"`
}

// Outcome is exactly one of Result or Failure, tagged with the sequence
// number of the task that produced it.
type Outcome struct {
	Seq     int
	Result  *Result
	Failure *Failure
}

// OK reports whether the outcome is a result.
func (o Outcome) OK() bool { return o.Result != nil }

// File is one input to a review run. Err is set when the content could not
// be loaded; such files produce failures without a remote call.
type File struct {
	Path    string
	Content string
	Err     error
}

// Task is one file reviewed under one perspective. Content is captured at
// creation and already truncated.
type Task struct {
	Seq         int
	File        string
	Content     string
	Perspective perspective.ID
}

// SummaryEntry is one successful result's summary in a report.
type SummaryEntry struct {
	Perspective perspective.ID `json:"perspective" yaml:"perspective"`
	File        string         `json:"file" yaml:"file"`
	Summary     string         `json:"summary" yaml:"summary"`
}

// Report is the aggregate of one review run.
type Report struct {
	Tool               string         `json:"tool" yaml:"tool"`
	Version            string         `json:"version" yaml:"version"`
	RunID              string         `json:"run_id" yaml:"run_id"`
	Model              string         `json:"model,omitempty" yaml:"model,omitempty"`
	Success            bool           `json:"success" yaml:"success"`
	Error              string         `json:"error,omitempty" yaml:"error,omitempty"`
	AverageScore       float64        `json:"average_score" yaml:"average_score"`
	TotalIssues        int            `json:"total_issues" yaml:"total_issues"`
	HighSeverityIssues int            `json:"high_severity_issues" yaml:"high_severity_issues"`
	Issues             []Issue        `json:"issues" yaml:"issues"`
	Summaries          []SummaryEntry `json:"summaries" yaml:"summaries"`
	FileCount          int            `json:"file_count" yaml:"file_count"`
	PerspectiveCount   int            `json:"perspective_count" yaml:"perspective_count"`
	TaskCount          int            `json:"task_count" yaml:"task_count"`
	CachedCount        int            `json:"cached_count" yaml:"cached_count"`
	DegradedCount      int            `json:"degraded_count" yaml:"degraded_count"`
	Failures           []Failure      `json:"failures,omitempty" yaml:"failures,omitempty"`
	Timestamp          time.Time      `json:"timestamp" yaml:"timestamp"`
}

// SeverityCounts tallies exposed issues by severity for writers.
type SeverityCounts struct {
	High   int
	Medium int
	Low    int
	Other  int
}

// CountSeverities counts issues by severity.
func CountSeverities(issues []Issue) SeverityCounts {
	var c SeverityCounts
	for _, i := range issues {
		switch i.Severity {
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		default:
			c.Other++
		}
	}
	return c
}
