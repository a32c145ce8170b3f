package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestKey_Deterministic(t *testing.T) {
	a := Key("package main", "security", "anthropic:claude")
	b := Key("package main", "security", "anthropic:claude")
	if a != b {
		t.Errorf("same inputs produced different keys: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestKey_Distinct(t *testing.T) {
	base := Key("x", "security", "m")
	for name, k := range map[string]string{
		"content":     Key("y", "security", "m"),
		"perspective": Key("x", "quality", "m"),
		"model":       Key("x", "security", "n"),
	} {
		if k == base {
			t.Errorf("changing %s did not change the key", name)
		}
	}
}

func TestKey_MatchesJoinedDigest(t *testing.T) {
	// The three parts are hashed as "content:perspective:model".
	if Key("a:b", "c", "d") != Key("a", "b:c", "d") {
		t.Error("keys should hash the colon-joined string")
	}
}

func TestFileStore_PutGet(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx := context.Background()
	key := Key("content", "security", "m")

	if _, ok := s.Get(ctx, key); ok {
		t.Error("expected miss before put")
	}
	if err := s.Put(ctx, key, []byte(`{"score":80}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	got, ok := s.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after put")
	}
	if string(got) != `{"score":80}` {
		t.Errorf("Get = %s", got)
	}
}

func TestFileStore_NeverOverwrites(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	ctx := context.Background()
	key := Key("c", "p", "m")

	if err := s.Put(ctx, key, []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, key, []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, key)
	if string(got) != `{"v":1}` {
		t.Errorf("entry was updated in place: %s", got)
	}
}

func TestFileStore_RejectsInvalidJSON(t *testing.T) {
	s, _ := NewFileStore(t.TempDir())
	if err := s.Put(context.Background(), "k", []byte("not json")); err == nil {
		t.Error("expected error for non-JSON value")
	}
}

func TestFileStore_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	key := Key("c", "p", "m")
	if err := os.WriteFile(filepath.Join(dir, key+".json"), []byte("{garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Get(context.Background(), key); ok {
		t.Error("corrupt entry should be a miss")
	}
}

func TestFileStore_PutReplacesCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	ctx := context.Background()
	key := Key("c", "p", "m")
	other := Key("c", "p", "other")

	for _, junk := range [][]byte{
		[]byte("{garbage"),
		[]byte(`{"key":"` + other + `","value":{"v":0}}`),
		[]byte(`{"key":"` + key + `"}`),
	} {
		if err := os.WriteFile(filepath.Join(dir, key+".json"), junk, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := s.Put(ctx, key, []byte(`{"v":1}`)); err != nil {
			t.Fatalf("Put over %q: %v", junk, err)
		}
		got, ok := s.Get(ctx, key)
		if !ok || string(got) != `{"v":1}` {
			t.Errorf("after Put over %q: Get = %s, %v", junk, got, ok)
		}
	}
}

func TestFileStore_ClearAndStats(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	ctx := context.Background()

	for i, c := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, Key(c, "p", "m"), []byte(`{"i":`+string(rune('0'+i))+`}`)); err != nil {
			t.Fatal(err)
		}
	}
	// Unrelated files are ignored.
	os.WriteFile(filepath.Join(dir, "README.txt"), []byte("hi"), 0o644)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 3 {
		t.Errorf("Entries = %d, want 3", stats.Entries)
	}
	if stats.TotalBytes == 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Backend != BackendFile || stats.Location != dir {
		t.Errorf("unexpected stats identity: %+v", stats)
	}

	n, err := s.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "README.txt")); err != nil {
		t.Error("Clear removed a non-cache file")
	}
	stats, _ = s.Stats(ctx)
	if stats.Entries != 0 {
		t.Errorf("Entries after clear = %d", stats.Entries)
	}
}

func TestFileStore_ConcurrentPut(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	ctx := context.Background()
	key := Key("same", "p", "m")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Put(ctx, key, []byte(`{"ok":true}`))
		}()
	}
	wg.Wait()

	if got, ok := s.Get(ctx, key); !ok || string(got) != `{"ok":true}` {
		t.Errorf("Get after concurrent puts = %s, %v", got, ok)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestNew_Disabled(t *testing.T) {
	s, err := New(Options{Enabled: false})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	ctx := context.Background()
	if err := s.Put(ctx, "k", []byte(`{}`)); err != nil {
		t.Errorf("Put on disabled store: %v", err)
	}
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("disabled store should always miss")
	}
	stats, _ := s.Stats(ctx)
	if stats.Backend != "disabled" {
		t.Errorf("Backend = %q", stats.Backend)
	}
}

func TestNew_Backends(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Options{Enabled: true, Dir: dir})
	if err != nil {
		t.Fatalf("New(file) error: %v", err)
	}
	if _, ok := s.(*FileStore); !ok {
		t.Errorf("default backend = %T, want *FileStore", s)
	}
	s.Close()

	s, err = New(Options{Enabled: true, Backend: "SQLite", Dir: dir})
	if err != nil {
		t.Fatalf("New(sqlite) error: %v", err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Errorf("backend = %T, want *SQLiteStore", s)
	}
	s.Close()

	if _, err := New(Options{Enabled: true, Backend: "redis", Dir: dir}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestDefaultDir_XDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "facet") {
		t.Errorf("DefaultDir = %q", dir)
	}
}
