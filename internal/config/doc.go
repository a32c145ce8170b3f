// Package config loads and merges facet configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags, passed to [Load] as overrides
//  2. Environment variables (FACET_PROVIDER, FACET_MODEL, FACET_MAX_WORKERS, etc.)
//  3. Config file ($XDG_CONFIG_HOME/facet/config.yaml, or $FACET_CONFIG)
//  4. Built-in defaults
//
// Merging is done with a private viper instance so tests and the MCP server
// can load configurations side by side. The resulting [Config] is a plain
// value; components receive it (or the fields they need) at construction
// and never observe later changes. [Config.Validate] collects every problem
// into one error wrapping [ErrInvalid], which the CLI maps to the
// configuration-error exit code.
package config
