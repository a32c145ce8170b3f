package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/facet/internal/perspective"
	"github.com/dshills/facet/internal/providers"
	"github.com/dshills/facet/internal/redact"
)

// ErrTimeout is wrapped by errors for calls that exceeded their deadline.
var ErrTimeout = errors.New("review timed out")

// DegradedScore is the neutral score given to replies that could not be
// parsed.
const DegradedScore = 50

// Submitter reviews one task. Implementations return a Result (possibly
// degraded) or an error for transport-level failures.
type Submitter interface {
	Submit(ctx context.Context, task Task) (Result, error)
}

// ReviewerOptions configures a RemoteReviewer.
type ReviewerOptions struct {
	MaxFileBytes int
	Timeout      time.Duration
	MaxTokens    int
	Temperature  float64
	Redact       redact.Policy
	Logger       *slog.Logger
	Now          func() time.Time
}

// RemoteReviewer submits tasks to an LLM provider, one attempt each.
type RemoteReviewer struct {
	provider providers.Reviewer
	opts     ReviewerOptions
	logger   *slog.Logger
	now      func() time.Time
}

// NewRemoteReviewer wraps provider.
func NewRemoteReviewer(provider providers.Reviewer, opts ReviewerOptions) *RemoteReviewer {
	r := &RemoteReviewer{provider: provider, opts: opts, logger: opts.Logger, now: opts.Now}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Submit truncates and redacts the task content, sends it under the task's
// perspective and parses the reply. Unparseable replies become degraded
// results; transport failures and timeouts are errors.
func (r *RemoteReviewer) Submit(ctx context.Context, task Task) (Result, error) {
	p, ok := perspective.Get(task.Perspective)
	if !ok {
		return Result{}, fmt.Errorf("unknown perspective %q", task.Perspective)
	}

	content, truncated := Truncate(task.Content, r.opts.MaxFileBytes)
	content, redactions := r.opts.Redact.Apply(task.File, content)
	if redactions > 0 {
		r.logger.Debug("redacted content", "file", task.File, "count", redactions)
	}

	req := providers.ReviewRequest{
		SystemPrompt: SystemPrompt(),
		UserPrompt:   BuildUserPrompt(p, task.File, content, truncated),
		MaxTokens:    r.opts.MaxTokens,
		Temperature:  r.opts.Temperature,
	}

	callCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := r.provider.Review(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Result{}, fmt.Errorf("%w after %s", ErrTimeout, time.Since(start).Round(time.Millisecond))
		}
		return Result{}, fmt.Errorf("%s review of %s: %w", task.Perspective, task.File, err)
	}
	r.logger.Debug("provider replied",
		"file", task.File, "perspective", task.Perspective,
		"tokens", resp.TokensUsed, "duration", time.Since(start).Round(time.Millisecond))

	result := Result{
		Perspective: task.Perspective,
		File:        task.File,
		Timestamp:   r.now().UTC(),
	}

	reply, err := ParseReply(resp.Content)
	if err != nil {
		r.logger.Debug("degraded reply", "file", task.File, "perspective", task.Perspective, "error", err)
		result.Issues = []Issue{}
		result.Score = DegradedScore
		result.Summary = "Review response could not be parsed: " + err.Error()
		result.Degraded = true
		return result, nil
	}

	result.Issues = reply.Issues
	result.Summary = reply.Summary
	result.Score = reply.Score
	return result, nil
}

// Truncate returns the first max bytes of content and whether anything was
// cut. A non-positive max disables truncation.
func Truncate(content string, max int) (string, bool) {
	if max <= 0 || len(content) <= max {
		return content, false
	}
	return content[:max], true
}
