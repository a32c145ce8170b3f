package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dshills/facet/internal/cache"
	"github.com/dshills/facet/internal/perspective"
)

// ResultCache stores Results in a byte-level cache.Store, keyed by content,
// perspective and the model identifier bound at construction. A nil
// *ResultCache is valid and never hits.
type ResultCache struct {
	store  cache.Store
	model  string
	logger *slog.Logger
}

// NewResultCache binds store to modelID.
func NewResultCache(store cache.Store, modelID string, logger *slog.Logger) *ResultCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ResultCache{store: store, model: modelID, logger: logger}
}

// Key returns the cache key for content reviewed under p.
func (c *ResultCache) Key(content string, p perspective.ID) string {
	model := ""
	if c != nil {
		model = c.model
	}
	return cache.Key(content, string(p), model)
}

// Lookup returns the stored Result for content under p. Missing, unreadable
// and undecodable entries are all misses.
func (c *ResultCache) Lookup(ctx context.Context, content string, p perspective.ID) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	data, ok := c.store.Get(ctx, c.Key(content, p))
	if !ok {
		return Result{}, false
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil || r.Perspective != p {
		c.logger.Debug("ignoring unreadable cache entry", "perspective", p, "error", err)
		return Result{}, false
	}
	if r.Issues == nil {
		r.Issues = []Issue{}
	}
	return r, true
}

// Store saves r for content under p. Callers treat the error as advisory.
func (c *ResultCache) Store(ctx context.Context, content string, p perspective.ID, r Result) error {
	if c == nil {
		return nil
	}
	r.Cached = false
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := c.store.Put(ctx, c.Key(content, p), data); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}
