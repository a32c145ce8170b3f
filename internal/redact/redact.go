package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Placeholder replaces every redacted span.
const Placeholder = "[REDACTED]"

type pattern struct {
	name string
	re   *regexp.Regexp
}

// patterns are heuristics for common secret shapes. Order matters: the
// broad assignment patterns run after the vendor-specific ones so a key is
// counted once under its most specific name.
var patterns = []pattern{
	{"private key", regexp.MustCompile(`(?s)-----BEGIN [A-Z ]*PRIVATE KEY-----.*?(-----END [A-Z ]*PRIVATE KEY-----|$)`)},
	{"anthropic key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai key", regexp.MustCompile(`sk-[A-Za-z0-9_-]{20,}`)},
	{"github token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"aws access key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws secret", regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"bearer token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"connection string", regexp.MustCompile(`(?i)\b(postgres(ql)?|mysql|mongodb(\+srv)?|redis|amqp)://[^\s:/@]+:[^\s@]+@[^\s"']+`)},
	{"api key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?[A-Za-z0-9/+=_-]{20,}["']?`)},
	{"secret assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["'][^"']{8,}["']`)},
	{"hex secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Policy decides what to strip from file content before it leaves the
// machine.
type Policy struct {
	// Secrets enables pattern-based redaction.
	Secrets bool
	// Paths are glob patterns; a matching file is replaced wholesale.
	Paths []string
}

// Apply returns content with the policy applied and the number of
// redactions made. A path-policy match counts as one.
func (p Policy) Apply(path, content string) (string, int) {
	if MatchPath(path, p.Paths) {
		return Placeholder + " (file content redacted by path policy)\n", 1
	}
	if !p.Secrets {
		return content, 0
	}
	return Secrets(content)
}

// Secrets replaces detected secrets in text with Placeholder and reports how
// many spans were replaced.
func Secrets(text string) (string, int) {
	total := 0
	for _, pat := range patterns {
		text = pat.re.ReplaceAllStringFunc(text, func(string) string {
			total++
			return Placeholder
		})
	}
	return text, total
}

// MatchPath reports whether path matches any of the glob patterns. A
// leading "**/" matches at any depth.
func MatchPath(path string, globs []string) bool {
	path = filepath.ToSlash(path)
	for _, g := range globs {
		if ok, err := filepath.Match(g, path); err == nil && ok {
			return true
		}
		rest, found := strings.CutPrefix(g, "**/")
		if !found {
			continue
		}
		if ok, err := filepath.Match(rest, filepath.Base(path)); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(rest, path); err == nil && ok {
			return true
		}
	}
	return false
}
