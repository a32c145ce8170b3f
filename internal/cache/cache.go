package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Backend names accepted by New.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a byte-level, content-addressed store. Keys are digests produced
// by Key; values are opaque. Entries are written once and never updated.
type Store interface {
	// Get returns the value for key. Any read or decode problem is a miss.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Put stores value under key. An existing entry is left untouched.
	Put(ctx context.Context, key string, value []byte) error
	// Clear removes every entry and reports how many were removed.
	Clear(ctx context.Context) (int, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats describes the contents of a Store.
type Stats struct {
	Backend    string `json:"backend"`
	Location   string `json:"location"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
}

// Options selects and configures a backend.
type Options struct {
	Enabled bool
	Backend string
	// Dir is the cache directory. Empty means the OS default.
	Dir string
}

// New opens the Store described by opts. A disabled cache returns a Store
// on which every lookup misses.
func New(opts Options) (Store, error) {
	if !opts.Enabled {
		return Disabled{}, nil
	}
	dir := opts.Dir
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return NewSQLiteStore(filepath.Join(dir, "cache.db"))
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want %s or %s)", opts.Backend, BackendFile, BackendSQLite)
	}
}

// Key derives the cache key for a unit of review work: the SHA-256 hex
// digest of "content:perspective:model".
func Key(content, perspective, model string) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte{':'})
	h.Write([]byte(perspective))
	h.Write([]byte{':'})
	h.Write([]byte(model))
	return hex.EncodeToString(h.Sum(nil))
}

// Disabled is a Store that holds nothing.
type Disabled struct{}

func (Disabled) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Disabled) Put(context.Context, string, []byte) error { return nil }
func (Disabled) Clear(context.Context) (int, error) { return 0, nil }
func (Disabled) Stats(context.Context) (Stats, error) { return Stats{Backend: "disabled"}, nil }
func (Disabled) Close() error { return nil }

// DefaultDir returns the per-user cache directory for facet.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "facet"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "facet"), nil
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "facet", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "facet", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "facet"), nil
	}
}
