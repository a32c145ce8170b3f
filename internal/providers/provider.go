package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ReviewRequest contains the data sent to an LLM for one review.
type ReviewRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ReviewResponse contains the raw reply text from an LLM.
type ReviewResponse struct {
	Content    string
	TokensUsed int
}

// Reviewer is the provider abstraction. Implementations make exactly one
// request per call; retries are the caller's decision.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
}

// Options configures a provider.
type Options struct {
	Provider string
	Model    string
	// Endpoint overrides the vendor's default base URL.
	Endpoint string
	// Timeout bounds a single HTTP exchange. Zero leaves it to the context.
	Timeout time.Duration
	// HTTPClient replaces the default client; tests point it at httptest.
	HTTPClient *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: o.Timeout}
}

// New creates a provider by name.
func New(opts Options) (Reviewer, error) {
	switch strings.ToLower(opts.Provider) {
	case "anthropic":
		return NewAnthropic(opts)
	case "openai":
		return NewOpenAI(opts)
	case "ollama":
		return NewOllama(opts)
	case "lmstudio":
		return NewLMStudio(opts)
	case "gemini", "google":
		return NewGemini(opts)
	default:
		return nil, fmt.Errorf("unknown provider: %s", opts.Provider)
	}
}
