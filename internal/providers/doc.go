// Package providers implements the Reviewer interface for each supported LLM
// vendor.
//
// Anthropic goes through the official anthropic-sdk-go client with its
// built-in retries switched off. OpenAI, Ollama and LM Studio share one
// OpenAI-compatible chat completions client. Gemini talks to the
// generateContent endpoint directly.
//
// Every Reviewer makes a single attempt per call. Non-success statuses come
// back as typed errors (see [IsAuthError], [IsRateLimited] and
// [StatusError]); constructors fail with [ErrMissingCredential] when the
// vendor's key is absent. Endpoints and HTTP clients are injectable through
// [Options] so tests run against httptest servers.
//
// Use [New] to obtain a Reviewer by provider name.
package providers
