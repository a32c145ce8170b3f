package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/facet/internal/review"
)

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *review.Report) error
}

// Options tunes writers that have presentation choices.
type Options struct {
	// Color enables ANSI color in the text writer.
	Color bool
	// Actor is credited in the GitHub comment footer.
	Actor string
}

// Formats lists the supported format names.
var Formats = []string{"text", "json", "yaml", "markdown", "github", "table", "sarif"}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return &TextWriter{Color: opts.Color}, nil
	case "json":
		return &JSONWriter{}, nil
	case "yaml":
		return &YAMLWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "github":
		return &GitHubWriter{Actor: opts.Actor}, nil
	case "table":
		return &TableWriter{}, nil
	case "sarif":
		return &SARIFWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (available: %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteReport writes the report to outPath, or to stdout when outPath is
// empty.
func WriteReport(report *review.Report, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}

	var w io.Writer
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	} else {
		w = os.Stdout
	}

	return writer.Write(w, report)
}

// Render writes the report into a string.
func Render(report *review.Report, format string, opts Options) (string, error) {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := writer.Write(&b, report); err != nil {
		return "", err
	}
	return b.String(), nil
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func issueLocation(i review.Issue) string {
	if i.Line != nil {
		return fmt.Sprintf("%s:%d", i.File, *i.Line)
	}
	return i.File
}

func issuesBySeverity(issues []review.Issue) map[review.Severity][]review.Issue {
	m := make(map[review.Severity][]review.Issue)
	for _, i := range issues {
		m[i.Severity] = append(m[i.Severity], i)
	}
	return m
}

// severityOrder lists the known severities first, then any others in
// first-seen order.
func severityOrder(issues []review.Issue) []review.Severity {
	order := []review.Severity{review.SeverityHigh, review.SeverityMedium, review.SeverityLow}
	seen := map[review.Severity]bool{review.SeverityHigh: true, review.SeverityMedium: true, review.SeverityLow: true}
	for _, i := range issues {
		if !seen[i.Severity] {
			seen[i.Severity] = true
			order = append(order, i.Severity)
		}
	}
	return order
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// formatScore prints whole scores without a decimal, others with one.
func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
