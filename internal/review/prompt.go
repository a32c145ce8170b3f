package review

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dshills/facet/internal/perspective"
)

const systemPrompt = `You are a strict, expert code reviewer. You review one source file at a time from the single perspective you are given.

Rules:
1. Review only the file provided. Reference line numbers from that file.
2. Be concise and actionable. Every issue should carry a concrete fix.
3. Rate severity as "HIGH", "MEDIUM", or "LOW".
4. Score the file from 0 (unacceptable) to 100 (no concerns) for this perspective.

You MUST respond with ONLY the JSON object described in the instructions. No markdown, no explanation, no preamble.`

// SystemPrompt returns the system prompt shared by every perspective.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt embeds the perspective instructions, the output contract,
// the file identifier and the (already truncated) content.
func BuildUserPrompt(p perspective.Perspective, file, content string, truncated bool) string {
	var b strings.Builder

	b.WriteString(p.Prompt())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "File: %s\n", file)
	if lang := detectLanguage(file); lang != "" {
		fmt.Fprintf(&b, "Language: %s\n", lang)
	}
	if truncated {
		b.WriteString("Note: the file was truncated; review only what is shown.\n")
	}
	b.WriteString("Code:\n```\n")
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("```\n")

	return b.String()
}

var langByExt = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript/React",
	".jsx":   "JavaScript/React",
	".rs":    "Rust",
	".java":  "Java",
	".rb":    "Ruby",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".sql":   "SQL",
	".sh":    "Shell",
}

func detectLanguage(file string) string {
	return langByExt[strings.ToLower(filepath.Ext(file))]
}
