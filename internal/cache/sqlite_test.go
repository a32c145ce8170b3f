package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_CreatesDirectory(t *testing.T) {
	s := newTestSQLite(t)
	_, err := os.Stat(filepath.Dir(s.Path()))
	assert.NoError(t, err)
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.migrate(context.Background()))
}

func TestSQLiteStore_PutGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	key := Key("content", "quality", "m")

	_, ok := s.Get(ctx, key)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, key, []byte(`{"score":70}`)))
	got, ok := s.Get(ctx, key)
	require.True(t, ok)
	assert.JSONEq(t, `{"score":70}`, string(got))

	// Second put is ignored.
	require.NoError(t, s.Put(ctx, key, []byte(`{"score":10}`)))
	got, _ = s.Get(ctx, key)
	assert.JSONEq(t, `{"score":70}`, string(got))
}

func TestSQLiteStore_ClearAndStats(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a", []byte(`{"x":1}`)))
	require.NoError(t, s.Put(ctx, "b", []byte(`{"x":2}`)))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(14), stats.TotalBytes)
	assert.Equal(t, BackendSQLite, stats.Backend)

	n, err := s.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.TotalBytes)
}

func TestSQLiteStore_ConcurrentWriters(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := Key("same", "p", "m")
			if i%2 == 0 {
				key = Key(string(rune('a'+i)), "p", "m")
			}
			assert.NoError(t, s.Put(ctx, key, []byte(`{}`)))
		}(i)
	}
	wg.Wait()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, stats.Entries)
}
