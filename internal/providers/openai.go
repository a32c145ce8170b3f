package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	defaultOpenAIURL   = "https://api.openai.com"
	defaultOllamaURL   = "http://localhost:11434"
	defaultLMStudioURL = "http://localhost:1234"
)

// OpenAI implements the Reviewer interface for the OpenAI chat completions
// API and for local servers that speak it (Ollama, LM Studio).
type OpenAI struct {
	name    string
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAI creates an OpenAI provider. OPENAI_API_KEY is required.
func NewOpenAI(opts Options) (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, missingKey("OPENAI_API_KEY")
	}
	return newOpenAICompatible("openai", key, firstNonEmpty(opts.Endpoint, defaultOpenAIURL), opts), nil
}

// NewOllama creates a provider for a local Ollama server. No API key is
// required; OLLAMA_HOST is honoured when no endpoint is configured.
func NewOllama(opts Options) (*OpenAI, error) {
	base := firstNonEmpty(opts.Endpoint, os.Getenv("OLLAMA_HOST"), defaultOllamaURL)
	return newOpenAICompatible("ollama", os.Getenv("FACET_LOCAL_API_KEY"), base, opts), nil
}

// NewLMStudio creates a provider for a local LM Studio server.
func NewLMStudio(opts Options) (*OpenAI, error) {
	base := firstNonEmpty(opts.Endpoint, defaultLMStudioURL)
	return newOpenAICompatible("lmstudio", os.Getenv("FACET_LOCAL_API_KEY"), base, opts), nil
}

func newOpenAICompatible(name, key, base string, opts Options) *OpenAI {
	return &OpenAI{
		name:    name,
		apiKey:  key,
		model:   opts.Model,
		baseURL: chatCompletionsURL(base),
		client:  opts.httpClient(),
	}
}

// chatCompletionsURL normalizes a base URL that may or may not already carry
// the /v1 or /v1/chat/completions suffix.
func chatCompletionsURL(base string) string {
	base = strings.TrimRight(base, "/")
	base = strings.TrimSuffix(base, "/v1/chat/completions")
	base = strings.TrimSuffix(base, "/v1")
	return base + "/v1/chat/completions"
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2000
	}

	body := openaiRequest{
		Model: o.model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(payload))
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("reading response: %w", err)
	}
	if err := checkStatus(httpResp.StatusCode, respBody); err != nil {
		return ReviewResponse{}, err
	}

	var result openaiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return ReviewResponse{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return ReviewResponse{}, fmt.Errorf("no choices in response")
	}
	if result.Choices[0].Message.Content == "" {
		return ReviewResponse{}, fmt.Errorf("empty text content in API response")
	}

	return ReviewResponse{
		Content:    result.Choices[0].Message.Content,
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Message openaiMessage `json:"message"`
}

type openaiUsage struct {
	TotalTokens int `json:"total_tokens"`
}
