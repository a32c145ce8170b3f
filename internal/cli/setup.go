package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/facet/internal/cache"
	"github.com/dshills/facet/internal/config"
	"github.com/dshills/facet/internal/providers"
	"github.com/dshills/facet/internal/redact"
	"github.com/dshills/facet/internal/review"
)

// newProvider is swapped in tests.
var newProvider = providers.New

// pipeline is everything a review run needs, built from one Config.
type pipeline struct {
	engine     *review.Engine
	aggregator review.Aggregator
	store      cache.Store
}

func (p *pipeline) Close() error {
	return p.store.Close()
}

// setupError carries the exit code for a failure to build the pipeline.
type setupError struct {
	code int
	err  error
}

func (e *setupError) Error() string { return e.err.Error() }
func (e *setupError) Unwrap() error { return e.err }

func exitCodeFor(err error) int {
	var se *setupError
	if errors.As(err, &se) {
		return se.code
	}
	if errors.Is(err, config.ErrInvalid) {
		return ExitConfigError
	}
	return ExitRuntimeError
}

// cacheScope is the model component of cache keys. Redacted and raw
// submissions see different content, so they never share entries.
func cacheScope(modelID string, policy redact.Policy) string {
	if policy.Secrets || len(policy.Paths) > 0 {
		return modelID + "+redacted"
	}
	return modelID
}

type pipelineOptions struct {
	noRedact   bool
	onProgress func(done, total int)
}

// buildPipeline wires provider, cache, reviewer and engine. A cache that
// cannot be opened is logged and replaced by a disabled one.
func buildPipeline(cfg config.Config, logger *slog.Logger, opts pipelineOptions) (*pipeline, error) {
	provider, err := newProvider(providers.Options{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.RequestTimeout(),
	})
	if err != nil {
		return nil, &setupError{code: ExitConfigError, err: fmt.Errorf("creating provider: %w", err)}
	}

	store, err := cache.New(cache.Options{
		Enabled: cfg.Cache.Enabled,
		Backend: cfg.Cache.Backend,
		Dir:     cfg.Cache.Dir,
	})
	if err != nil {
		logger.Warn("cache unavailable, continuing without it", "error", err)
		store = cache.Disabled{}
	}

	policy := redact.Policy{Secrets: cfg.Privacy.RedactSecrets, Paths: cfg.Privacy.RedactPaths}
	if opts.noRedact {
		policy = redact.Policy{}
	}

	reviewer := review.NewRemoteReviewer(provider, review.ReviewerOptions{
		MaxFileBytes: cfg.MaxFileBytes,
		Timeout:      cfg.RequestTimeout(),
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		Redact:       policy,
		Logger:       logger,
	})

	var rc *review.ResultCache
	if cfg.Cache.Enabled {
		rc = review.NewResultCache(store, cacheScope(cfg.ModelID(), policy), logger)
	}

	engine := review.NewEngine(reviewer, rc, review.EngineOptions{
		Workers:      cfg.MaxWorkers,
		TaskTimeout:  cfg.TaskTimeout(),
		MaxFileBytes: cfg.MaxFileBytes,
		Logger:       logger,
		OnProgress:   opts.onProgress,
	})

	return &pipeline{
		engine: engine,
		aggregator: review.Aggregator{
			MaxIssues: cfg.MaxIssues,
			Tool:      "facet",
			Version:   version,
			Model:     cfg.ModelID(),
		},
		store: store,
	}, nil
}
