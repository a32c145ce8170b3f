package gitctx

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
	Remote string
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput("rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	remote, err := gitOutput("remote", "get-url", "origin")
	if err != nil {
		remote = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
		Remote: strings.TrimSpace(remote),
	}, nil
}

// ChangedFiles lists files changed on the current branch relative to
// origin/base. When that comparison fails (no remote, shallow clone) it
// falls back to uncommitted changes against HEAD.
func ChangedFiles(base string) ([]string, error) {
	if base == "" {
		base = "main"
	}
	out, err := gitOutput("diff", "--name-only", "origin/"+base+"...HEAD")
	if err == nil {
		return splitLines(out), nil
	}
	out, fallbackErr := gitOutput("diff", "--name-only", "HEAD")
	if fallbackErr != nil {
		return nil, fmt.Errorf("git diff: %w", errors.Join(err, fallbackErr))
	}
	return splitLines(out), nil
}

// StagedFiles lists files in the index that differ from HEAD, skipping
// deletions.
func StagedFiles() ([]string, error) {
	out, err := gitOutput("diff", "--cached", "--name-only", "--diff-filter=d")
	if err != nil {
		return nil, fmt.Errorf("git diff --cached: %w", err)
	}
	return splitLines(out), nil
}

// TrackedFiles returns all git-tracked, non-binary files matching the
// include/exclude filters, sorted.
func TrackedFiles(include, exclude []string) ([]string, error) {
	out, err := gitOutput("ls-files")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []string
	for _, line := range splitLines(out) {
		if len(include) > 0 && !MatchesAny(line, include) {
			continue
		}
		if len(exclude) > 0 && MatchesAny(line, exclude) {
			continue
		}
		if isBinary(line) {
			continue
		}
		files = append(files, line)
	}

	sort.Strings(files)
	return files, nil
}

// isBinary detects whether a file is binary using git diff --numstat.
// Binary files show "-\t-\t" for added/removed lines.
// HooksDir returns the hooks directory of the current repository.
func HooksDir() (string, error) {
	out, err := gitOutput("rev-parse", "--git-path", "hooks")
	if err != nil {
		return "", fmt.Errorf("not a git repository: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func isBinary(path string) bool {
	out, _ := gitOutput("diff", "--no-index", "--numstat", "/dev/null", path)
	return strings.HasPrefix(strings.TrimSpace(out), "-\t-\t")
}

// FilterExtensions keeps files whose extension is in exts, preserving
// order and dropping duplicates. Extensions compare case-sensitively and
// may be given with or without the leading dot.
func FilterExtensions(files, exts []string) []string {
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}

	var result []string
	seen := make(map[string]bool)
	for _, f := range files {
		if seen[f] || !allowed[filepath.Ext(f)] {
			continue
		}
		seen[f] = true
		result = append(result, f)
	}
	return result
}

// Exclude drops files matching any of the glob patterns.
func Exclude(files []string, patterns []string) []string {
	var result []string
	for _, f := range files {
		if !MatchesAny(f, patterns) {
			result = append(result, f)
		}
	}
	return result
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.Contains(dir, "*") {
			if strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			if dir, ok := strings.CutSuffix(clean, "/**"); ok {
				if strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
					return true
				}
			}
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
		}
	}
	return false
}

func splitLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
