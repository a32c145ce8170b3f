package review

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/facet/internal/perspective"
	"github.com/dshills/facet/internal/providers"
	"github.com/dshills/facet/internal/redact"
)

type fakeProvider struct {
	mu    sync.Mutex
	reqs  []providers.ReviewRequest
	reply string
	err   error
	delay time.Duration
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Review(ctx context.Context, req providers.ReviewRequest) (providers.ReviewResponse, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return providers.ReviewResponse{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return providers.ReviewResponse{}, f.err
	}
	return providers.ReviewResponse{Content: f.reply}, nil
}

func (f *fakeProvider) requests() []providers.ReviewRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providers.ReviewRequest(nil), f.reqs...)
}

var fixedNow = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestRemoteReviewer_Success(t *testing.T) {
	p := &fakeProvider{reply: `{"issues":[{"line":4,"severity":"HIGH","message":"m","fix":"f"}],"summary":"one problem","score":64}`}
	r := NewRemoteReviewer(p, ReviewerOptions{MaxTokens: 2000, Temperature: 0.3, Now: fixedNow})

	res, err := r.Submit(context.Background(), Task{File: "app.py", Content: "print(1)", Perspective: perspective.Security})
	require.NoError(t, err)

	assert.Equal(t, perspective.Security, res.Perspective)
	assert.Equal(t, "app.py", res.File)
	assert.Equal(t, 64, res.Score)
	assert.Equal(t, "one problem", res.Summary)
	assert.False(t, res.Degraded)
	assert.Equal(t, fixedNow(), res.Timestamp)
	require.Len(t, res.Issues, 1)

	reqs := p.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, SystemPrompt(), reqs[0].SystemPrompt)
	assert.Contains(t, reqs[0].UserPrompt, "File: app.py")
	assert.Contains(t, reqs[0].UserPrompt, "print(1)")
	assert.Contains(t, reqs[0].UserPrompt, "security vulnerabilities")
	assert.Equal(t, 2000, reqs[0].MaxTokens)
	assert.Equal(t, 0.3, reqs[0].Temperature)
}

func TestRemoteReviewer_DegradedReply(t *testing.T) {
	for _, reply := range []string{
		"Sorry, I can't help with that.",
		`{"issues": "none", "summary": "x", "score": 80}`,
		`{"summary": "no score or issues"}`,
		"```json\n{broken\n```",
	} {
		p := &fakeProvider{reply: reply}
		r := NewRemoteReviewer(p, ReviewerOptions{})

		res, err := r.Submit(context.Background(), Task{File: "a.go", Content: "x", Perspective: perspective.Quality})
		require.NoError(t, err, "degraded replies are not errors")
		assert.True(t, res.Degraded)
		assert.Equal(t, DegradedScore, res.Score)
		assert.NotNil(t, res.Issues)
		assert.Empty(t, res.Issues)
		assert.NotEmpty(t, res.Summary)
	}
}

func TestRemoteReviewer_Truncation(t *testing.T) {
	content := strings.Repeat("a", 90) + strings.Repeat("b", 20)
	p := &fakeProvider{reply: `{"issues":[],"summary":"s","score":90}`}
	r := NewRemoteReviewer(p, ReviewerOptions{MaxFileBytes: 100})

	for i := 0; i < 2; i++ {
		_, err := r.Submit(context.Background(), Task{File: "big.js", Content: content, Perspective: perspective.Performance})
		require.NoError(t, err)
	}

	reqs := p.requests()
	require.Len(t, reqs, 2)
	want := strings.Repeat("a", 90) + strings.Repeat("b", 10) + "\n```"
	assert.Contains(t, reqs[0].UserPrompt, want)
	assert.NotContains(t, reqs[0].UserPrompt, strings.Repeat("b", 11))
	assert.Contains(t, reqs[0].UserPrompt, "truncated")
	assert.Equal(t, reqs[0].UserPrompt, reqs[1].UserPrompt, "truncation is deterministic")
}

func TestTruncate(t *testing.T) {
	s, cut := Truncate("hello", 10)
	assert.Equal(t, "hello", s)
	assert.False(t, cut)

	s, cut = Truncate("hello world", 5)
	assert.Equal(t, "hello", s)
	assert.True(t, cut)
	assert.Len(t, s, 5)

	s, cut = Truncate("hello", 0)
	assert.Equal(t, "hello", s)
	assert.False(t, cut)
}

func TestRemoteReviewer_Timeout(t *testing.T) {
	p := &fakeProvider{reply: `{"issues":[],"summary":"s","score":90}`, delay: time.Second}
	r := NewRemoteReviewer(p, ReviewerOptions{Timeout: 20 * time.Millisecond})

	_, err := r.Submit(context.Background(), Task{File: "a.go", Content: "x", Perspective: perspective.Security})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestRemoteReviewer_TransportError(t *testing.T) {
	p := &fakeProvider{err: &providers.StatusError{Code: 502, Body: "bad gateway"}}
	r := NewRemoteReviewer(p, ReviewerOptions{})

	_, err := r.Submit(context.Background(), Task{File: "a.go", Content: "x", Perspective: perspective.Security})
	require.Error(t, err)
	var se *providers.StatusError
	assert.True(t, errors.As(err, &se))
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.Len(t, p.requests(), 1, "single attempt")
}

func TestRemoteReviewer_Redaction(t *testing.T) {
	p := &fakeProvider{reply: `{"issues":[],"summary":"s","score":90}`}
	r := NewRemoteReviewer(p, ReviewerOptions{Redact: redact.Policy{Secrets: true, Paths: []string{"**/*.pem"}}})

	_, err := r.Submit(context.Background(), Task{File: "cfg.py", Content: `API_KEY = "sk-ant-REDACTED"`, Perspective: perspective.Security})
	require.NoError(t, err)
	_, err = r.Submit(context.Background(), Task{File: "certs/server.pem", Content: "secret body", Perspective: perspective.Security})
	require.NoError(t, err)

	reqs := p.requests()
	assert.NotContains(t, reqs[0].UserPrompt, "sk-ant-")
	assert.Contains(t, reqs[0].UserPrompt, redact.Placeholder)
	assert.NotContains(t, reqs[1].UserPrompt, "secret body")
}

func TestRemoteReviewer_UnknownPerspective(t *testing.T) {
	p := &fakeProvider{}
	r := NewRemoteReviewer(p, ReviewerOptions{})
	_, err := r.Submit(context.Background(), Task{File: "a.go", Perspective: "style"})
	require.Error(t, err)
	assert.Empty(t, p.requests())
}
