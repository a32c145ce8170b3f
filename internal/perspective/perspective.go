package perspective

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ID identifies a review perspective.
type ID string

const (
	Security    ID = "security"
	Quality     ID = "quality"
	Performance ID = "performance"
)

// ids is the closed set of perspectives in presentation order.
var ids = []ID{Security, Quality, Performance}

// OutputContract is appended to every perspective's instructions. The
// response parser in package review depends on this exact shape.
const OutputContract = `Format your response as JSON:
{
  "issues": [
    {"line": <number>, "severity": "HIGH|MEDIUM|LOW", "message": "<description>", "fix": "<suggestion>"}
  ],
  "summary": "<brief overall assessment>",
  "score": <0-100>
}`

// Perspective is an immutable review lens.
type Perspective struct {
	ID           ID       `yaml:"id" json:"id"`
	Name         string   `yaml:"name" json:"name"`
	Instructions string   `yaml:"instructions" json:"instructions"`
	Focus        []string `yaml:"focus" json:"focus"`
}

// Prompt renders the full instruction payload including the output contract.
func (p Perspective) Prompt() string {
	var b strings.Builder
	b.WriteString(p.Instructions)
	if len(p.Focus) > 0 {
		b.WriteString(" Focus on:\n")
		for _, f := range p.Focus {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	} else {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(OutputContract)
	return b.String()
}

//go:embed catalog.yaml
var catalogYAML []byte

var catalog = mustLoad(catalogYAML)

func mustLoad(data []byte) map[ID]Perspective {
	c, err := load(data)
	if err != nil {
		panic("perspective: " + err.Error())
	}
	return c
}

func load(data []byte) (map[ID]Perspective, error) {
	var entries []Perspective
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	known := make(map[ID]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	c := make(map[ID]Perspective, len(entries))
	for _, e := range entries {
		if !known[e.ID] {
			return nil, fmt.Errorf("catalog entry %q is not a known perspective", e.ID)
		}
		if _, dup := c[e.ID]; dup {
			return nil, fmt.Errorf("catalog entry %q declared twice", e.ID)
		}
		if strings.TrimSpace(e.Name) == "" || strings.TrimSpace(e.Instructions) == "" {
			return nil, fmt.Errorf("catalog entry %q needs a name and instructions", e.ID)
		}
		c[e.ID] = e
	}
	for _, id := range ids {
		if _, ok := c[id]; !ok {
			return nil, fmt.Errorf("perspective %q missing from catalog", id)
		}
	}
	return c, nil
}

// All returns every perspective in catalog order.
func All() []Perspective {
	out := make([]Perspective, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalog[id])
	}
	return out
}

// IDs returns every perspective ID in catalog order.
func IDs() []ID {
	out := make([]ID, len(ids))
	copy(out, ids)
	return out
}

// Get returns the perspective for id.
func Get(id ID) (Perspective, bool) {
	p, ok := catalog[id]
	return p, ok
}

// Parse validates a user-supplied selection. An empty selection means every
// perspective. Names are case-insensitive and duplicates are dropped while
// keeping first-seen order. Unknown names produce a single error listing all
// of them alongside the available IDs.
func Parse(names []string) ([]ID, error) {
	if len(names) == 0 {
		return IDs(), nil
	}

	var (
		selected []ID
		invalid  []string
	)
	seen := make(map[ID]bool)
	for _, n := range names {
		id := ID(strings.ToLower(strings.TrimSpace(n)))
		if id == "" {
			continue
		}
		if _, ok := catalog[id]; !ok {
			invalid = append(invalid, n)
			continue
		}
		if !seen[id] {
			seen[id] = true
			selected = append(selected, id)
		}
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, fmt.Errorf("invalid perspectives: %s (available: %s)",
			strings.Join(invalid, ", "), joinIDs(ids))
	}
	if len(selected) == 0 {
		return IDs(), nil
	}
	return selected, nil
}

func joinIDs(list []ID) string {
	s := make([]string, len(list))
	for i, id := range list {
		s[i] = string(id)
	}
	return strings.Join(s, ", ")
}
