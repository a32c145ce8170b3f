// Package redact strips secrets from source content before it is sent to an
// LLM provider.
//
// Detection uses regex heuristics covering common secret shapes: private key
// blocks, provider keys (Anthropic, OpenAI, GitHub, Slack, AWS), JWTs,
// bearer tokens, credentialed connection strings and generic key/secret
// assignments.
//
// Path-based redaction is also supported: files whose paths match a
// configured glob have their entire content replaced rather than scanned.
package redact
