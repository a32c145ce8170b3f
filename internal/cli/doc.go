// Package cli wires together the Cobra command tree for the facet binary.
//
// It defines the root command and all subcommands (review, perspectives,
// config, cache, doctor, models, hook, mcp, version), binds flags to
// configuration overrides, builds the review pipeline and maps outcomes to
// exit codes for CI gating.
package cli
