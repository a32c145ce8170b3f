// Facet reviews source files with an LLM from several independent
// perspectives and merges the results into one ranked report.
//
// Each file is reviewed once per perspective (security, quality,
// performance). Results are cached by content, perspective and model, and
// the exit code reflects the average score against a threshold so the tool
// can gate CI pipelines and git hooks.
//
// Usage:
//
//	facet review main.go util.py          # review explicit files
//	facet review --changed                # files changed against origin/main
//	facet review --staged                 # files staged for commit
//	facet review --pr 42 --post-comment   # review a pull request and comment
//	facet perspectives                    # list the review perspectives
//	facet mcp                             # serve facet_review over MCP stdio
package main
