// Package mcp serves the review engine over the Model Context Protocol so
// coding agents can request reviews. Tools: facet_review and
// facet_perspectives.
package mcp
