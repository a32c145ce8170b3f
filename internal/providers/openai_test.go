package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func testOpenAI(url string) *OpenAI {
	return newOpenAICompatible("openai", "test-key", url, Options{Model: "gpt-4o"})
}

func TestOpenAI_Review(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		resp := openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "{}"}},
			},
			Usage: openaiUsage{TotalTokens: 50},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	resp, err := testOpenAI(server.URL).Review(context.Background(), ReviewRequest{
		SystemPrompt: "test",
		UserPrompt:   "test",
		MaxTokens:    10,
	})
	if err != nil {
		t.Fatalf("Review error: %v", err)
	}
	if resp.Content != "{}" {
		t.Errorf("Content = %q, want %q", resp.Content, "{}")
	}
	if resp.TokensUsed != 50 {
		t.Errorf("TokensUsed = %d, want 50", resp.TokensUsed)
	}
}

func TestOpenAI_NoRetryOnRateLimit(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(429)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer server.Close()

	_, err := testOpenAI(server.URL).Review(context.Background(), ReviewRequest{UserPrompt: "x"})
	if !IsRateLimited(err) {
		t.Errorf("expected rate-limit error, got %v", err)
	}
	if attempts.Load() != 1 {
		t.Errorf("attempts = %d, want 1", attempts.Load())
	}
}

func TestOpenAI_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"auth", 401, IsAuthError},
		{"forbidden", 403, IsAuthError},
		{"server", 503, func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == 503
		}},
		{"bad request", 400, func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == 400
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			_, err := testOpenAI(server.URL).Review(context.Background(), ReviewRequest{UserPrompt: "x"})
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	if _, err := testOpenAI(server.URL).Review(context.Background(), ReviewRequest{}); err == nil {
		t.Error("expected error for no choices")
	}
}

func TestChatCompletionsURL(t *testing.T) {
	for in, want := range map[string]string{
		"http://localhost:11434":                     "http://localhost:11434/v1/chat/completions",
		"http://localhost:11434/":                    "http://localhost:11434/v1/chat/completions",
		"http://localhost:1234/v1":                   "http://localhost:1234/v1/chat/completions",
		"https://api.openai.com/v1/chat/completions": "https://api.openai.com/v1/chat/completions",
	} {
		if got := chatCompletionsURL(in); got != want {
			t.Errorf("chatCompletionsURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOllama_NoKeyRequired(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434")
	t.Setenv("FACET_LOCAL_API_KEY", "")
	o, err := NewOllama(Options{Model: "llama3"})
	if err != nil {
		t.Fatalf("NewOllama error: %v", err)
	}
	if o.Name() != "ollama" {
		t.Errorf("Name = %q", o.Name())
	}
	if o.baseURL != "http://gpu-box:11434/v1/chat/completions" {
		t.Errorf("baseURL = %q", o.baseURL)
	}

	l, _ := NewLMStudio(Options{Model: "m", Endpoint: "http://studio:9999/v1"})
	if l.baseURL != "http://studio:9999/v1/chat/completions" {
		t.Errorf("lmstudio baseURL = %q", l.baseURL)
	}
}
