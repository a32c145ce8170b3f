package review

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/facet/internal/cache"
	"github.com/dshills/facet/internal/perspective"
)

// memStore is an in-memory cache.Store.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *memStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Clear(context.Context) (int, error) { return 0, nil }
func (s *memStore) Stats(context.Context) (cache.Stats, error) { return cache.Stats{}, nil }
func (s *memStore) Close() error { return nil }

func TestResultCache_RoundTrip(t *testing.T) {
	rc := NewResultCache(newMemStore(), "m", nil)
	ctx := context.Background()
	task := Task{File: "a.go", Content: "package a", Perspective: perspective.Security}
	want := okResult(task, 91)
	want.Cached = true

	require.NoError(t, rc.Store(ctx, task.Content, task.Perspective, want))
	got, ok := rc.Lookup(ctx, task.Content, task.Perspective)
	require.True(t, ok)
	assert.Equal(t, 91, got.Score)
	assert.False(t, got.Cached, "the stored copy is never marked cached")
}

func TestResultCache_BadEntriesMiss(t *testing.T) {
	ctx := context.Background()
	content := "package a"

	wrongPerspective, err := json.Marshal(Result{Perspective: perspective.Quality, Summary: "s", Score: 70})
	require.NoError(t, err)

	tests := []struct {
		name  string
		value []byte
	}{
		{"wrong shape", []byte(`{"issues":"none","score":"high"}`)},
		{"not an object", []byte(`[1,2,3]`)},
		{"invalid JSON", []byte(`{"score":`)},
		{"other perspective", wrongPerspective},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			rc := NewResultCache(store, "m", nil)
			require.NoError(t, store.Put(ctx, rc.Key(content, perspective.Security), tt.value))

			_, ok := rc.Lookup(ctx, content, perspective.Security)
			assert.False(t, ok)
		})
	}
}

func TestResultCache_NilNeverHits(t *testing.T) {
	var rc *ResultCache
	_, ok := rc.Lookup(context.Background(), "x", perspective.Security)
	assert.False(t, ok)
	assert.NoError(t, rc.Store(context.Background(), "x", perspective.Security, Result{}))
}

func TestResultCache_ModelBoundIntoKey(t *testing.T) {
	a := NewResultCache(newMemStore(), "anthropic:x", nil)
	b := NewResultCache(newMemStore(), "anthropic:x+redacted", nil)
	assert.NotEqual(t, a.Key("c", perspective.Quality), b.Key("c", perspective.Quality))
}
