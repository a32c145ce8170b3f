package output

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/dshills/facet/internal/review"
)

// TableWriter lists exposed issues as an aligned table.
type TableWriter struct{}

func (t *TableWriter) Write(w io.Writer, report *review.Report) error {
	ew := &errWriter{w: w}
	if !report.Success {
		ew.printf("Review failed: %s\n", report.Error)
		return ew.err
	}

	ew.printf("Score %s/100, %d issues (%d high)\n\n",
		formatScore(report.AverageScore), report.TotalIssues, report.HighSeverityIssues)
	if ew.err != nil {
		return ew.err
	}

	table := NewTable(w, []string{"Severity", "File", "Line", "Perspective", "Message"})
	for _, i := range report.Issues {
		line := ""
		if i.Line != nil {
			line = strconv.Itoa(*i.Line)
		}
		if err := table.Append([]string{string(i.Severity), i.File, line, string(i.Perspective), i.Message}); err != nil {
			return err
		}
	}
	return table.Render()
}

// NewTable creates a tablewriter configured with consistent styling.
func NewTable(w io.Writer, headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
