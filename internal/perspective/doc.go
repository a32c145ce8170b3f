// Package perspective defines the closed catalog of review perspectives.
//
// A perspective is a named lens (security, quality, performance) carrying
// the instruction text sent to the model and the output contract every reply
// must follow: a JSON object with an issue list, a free-text summary and a
// 0-100 integer score.
//
// The catalog is embedded as YAML and validated against the ID enumeration
// when the package is initialised, so a missing or unknown entry fails at
// startup rather than at first use.
package perspective
