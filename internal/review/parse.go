package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Reply is the structured payload extracted from a model response.
type Reply struct {
	Issues  []Issue
	Summary string
	Score   int
}

var (
	errNoObject  = errors.New("no JSON object found in response")
	errNotReply  = errors.New("JSON object lacks issues, summary and score")
	fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)```")
)

// maxObjectScans bounds how many '{' positions the balanced-object pass
// tries to decode, keeping hostile or very large replies linear.
const maxObjectScans = 256

// ParseReply extracts the review payload from free-form model output.
//
// Candidates are tried in order: the whole trimmed text, the body of each
// markdown code fence, the span from the first '{' to the last '}', and
// balanced JSON objects in the text. The first candidate that is an object
// with an "issues" array, a "summary" string and a numeric "score" wins.
// The error describes why nothing matched.
func ParseReply(text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, errors.New("empty response")
	}

	var (
		reply     Reply
		found     bool
		sawObject bool
		lastErr   error
	)
	eachCandidate(text, func(c string) bool {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(c), &fields); err != nil {
			return false
		}
		sawObject = true
		r, err := decodeReply(fields)
		if err != nil {
			lastErr = err
			return false
		}
		reply, found = r, true
		return true
	})
	switch {
	case found:
		return reply, nil
	case !sawObject:
		return Reply{}, errNoObject
	default:
		return Reply{}, lastErr
	}
}

// eachCandidate calls try with each distinct candidate until it returns true.
func eachCandidate(text string, try func(string) bool) {
	seen := make(map[string]bool)
	offer := func(s string) bool {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return false
		}
		seen[s] = true
		return try(s)
	}

	if offer(text) {
		return
	}
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		if offer(m[1]) {
			return
		}
	}
	if first, last := strings.Index(text, "{"), strings.LastIndex(text, "}"); first >= 0 && last > first {
		if offer(text[first : last+1]) {
			return
		}
	}
	scans := 0
	for i := 0; i < len(text) && scans < maxObjectScans; i++ {
		if text[i] != '{' {
			continue
		}
		scans++
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err == nil {
			if offer(string(raw)) {
				return
			}
		}
	}
}

func decodeReply(fields map[string]json.RawMessage) (Reply, error) {
	rawIssues, ok := fields["issues"]
	if !ok {
		return Reply{}, fmt.Errorf("%w: missing issues", errNotReply)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawIssues, &items); err != nil || items == nil {
		return Reply{}, fmt.Errorf("%w: issues is not an array", errNotReply)
	}

	rawSummary, ok := fields["summary"]
	if !ok || isNull(rawSummary) {
		return Reply{}, fmt.Errorf("%w: missing summary", errNotReply)
	}
	var summary string
	if err := json.Unmarshal(rawSummary, &summary); err != nil {
		return Reply{}, fmt.Errorf("%w: summary is not a string", errNotReply)
	}

	rawScore, ok := fields["score"]
	if !ok || isNull(rawScore) {
		return Reply{}, fmt.Errorf("%w: missing score", errNotReply)
	}
	var score float64
	if err := json.Unmarshal(rawScore, &score); err != nil {
		return Reply{}, fmt.Errorf("%w: score is not a number", errNotReply)
	}

	issues := make([]Issue, 0, len(items))
	for _, item := range items {
		if issue, ok := decodeIssue(item); ok {
			issues = append(issues, issue)
		}
	}

	return Reply{
		Issues:  issues,
		Summary: summary,
		Score:   clampScore(score),
	}, nil
}

// decodeIssue reads one untrusted issue entry. Entries that are not JSON
// objects are dropped; individual fields of the wrong type are defaulted.
func decodeIssue(raw json.RawMessage) (Issue, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Issue{}, false
	}

	issue := Issue{Severity: SeverityLow}
	if v, ok := fields["severity"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			issue.Severity = NormalizeSeverity(s)
		}
	}
	if v, ok := fields["message"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			issue.Message = s
		}
	}
	if v, ok := fields["fix"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			issue.Fix = s
		}
	}
	if v, ok := fields["line"]; ok {
		var n float64
		if json.Unmarshal(v, &n) == nil && n == math.Trunc(n) && n >= 1 && n <= math.MaxInt32 {
			line := int(n)
			issue.Line = &line
		}
	}
	return issue, true
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func clampScore(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	n := math.Round(f)
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	default:
		return int(n)
	}
}
