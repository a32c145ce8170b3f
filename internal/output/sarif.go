package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dshills/facet/internal/perspective"
	"github.com/dshills/facet/internal/review"
)

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// SARIFWriter outputs issues in SARIF v2.1.0 format, one rule per
// perspective.
type SARIFWriter struct{}

func (s *SARIFWriter) Write(w io.Writer, report *review.Report) error {
	data, err := json.MarshalIndent(buildSARIF(report), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling SARIF: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// SARIF schema types (v2.1.0)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

type sarifFix struct {
	Description sarifMessage `json:"description"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool                `json:"executionSuccessful"`
	Notifications       []sarifNotification `json:"toolExecutionNotifications,omitempty"`
}

type sarifNotification struct {
	Level   string       `json:"level"`
	Message sarifMessage `json:"message"`
}

func buildSARIF(report *review.Report) sarifLog {
	results := make([]sarifResult, 0, len(report.Issues))
	used := make(map[perspective.ID]bool)

	for _, i := range report.Issues {
		used[i.Perspective] = true
		result := sarifResult{
			RuleID:  ruleID(i.Perspective),
			Level:   severityToLevel(i.Severity),
			Message: sarifMessage{Text: i.Message},
		}
		if i.File != "" {
			loc := sarifLocation{PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: i.File},
			}}
			if i.Line != nil {
				loc.PhysicalLocation.Region = &sarifRegion{StartLine: *i.Line}
			}
			result.Locations = append(result.Locations, loc)
		}
		if i.Fix != "" {
			result.Fixes = append(result.Fixes, sarifFix{Description: sarifMessage{Text: i.Fix}})
		}
		results = append(results, result)
	}

	// Rules in catalog order, limited to those referenced.
	rules := []sarifRule{}
	for _, p := range perspective.All() {
		if !used[p.ID] {
			continue
		}
		rules = append(rules, sarifRule{
			ID:               ruleID(p.ID),
			Name:             p.Name,
			ShortDescription: sarifMessage{Text: p.Instructions},
			DefaultConfig:    sarifDefaultConfig{Level: "warning"},
		})
	}

	inv := sarifInvocation{ExecutionSuccessful: report.Success}
	if report.Error != "" {
		inv.Notifications = append(inv.Notifications, sarifNotification{Level: "error", Message: sarifMessage{Text: report.Error}})
	}
	for _, f := range report.Failures {
		inv.Notifications = append(inv.Notifications, sarifNotification{
			Level:   "warning",
			Message: sarifMessage{Text: fmt.Sprintf("%s [%s]: %s", f.File, f.Perspective, f.Reason)},
		})
	}

	return sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchema,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "facet",
						Version:        report.Version,
						InformationURI: "https://github.com/dshills/facet",
						Rules:          rules,
					},
				},
				Results:     results,
				Invocations: []sarifInvocation{inv},
			},
		},
	}
}

// severityToLevel maps issue severity to SARIF level.
func severityToLevel(s review.Severity) string {
	switch s {
	case review.SeverityHigh:
		return "error"
	case review.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

func ruleID(p perspective.ID) string {
	return "facet/" + string(p)
}
