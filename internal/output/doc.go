// Package output formats review reports for display or machine consumption.
//
// Supported formats:
//   - text: human-readable terminal output (default)
//   - json, yaml: the full structured report
//   - markdown: a standalone report with collapsible severity sections
//   - github: a pull request comment
//   - table: an aligned issue table
//   - sarif: SARIF v2.1.0 for code scanning uploads
//
// Use [GetWriter] to obtain a [Writer] for a format name. [UI] prints
// colored status lines for the CLI.
package output
