package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired is returned by [Cache.Get] when an entry exists but is older
// than the cache TTL. The stale entry stays on disk until the next Set.
var ErrExpired = errors.New("cache entry expired")

// Cache keeps the last good response for a key on disk, one JSON file per
// key, so the CLI can fall back to it when the server is unreachable.
//
// A Cache is not safe for concurrent use by multiple goroutines. Separate
// processes may share a directory since every Set replaces a whole file.
type Cache struct {
	dir string
	ttl time.Duration
}

// NewCache creates a Cache in dir with the given TTL. A TTL of 0 keeps
// entries forever. If dir is empty, ~/.cache/mindgraph/ is used.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".cache", "mindgraph")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// Get decodes the entry for key into v and reports whether it was found.
// An entry older than the TTL yields (false, ErrExpired).
func (c *Cache) Get(key string, v any) (bool, error) {
	path := c.path(key)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return true, nil
}

// Age returns how long ago the entry for key was written.
func (c *Cache) Age(key string) (time.Duration, bool) {
	info, err := os.Stat(c.path(key))
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()), true
}

// Set stores v under key, replacing any previous entry.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return os.WriteFile(c.path(key), data, 0o644)
}

// Key joins parts into a cache key, e.g. Key(baseURL, "simple").
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) path(key string) string {
	h := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(h[:])+".json")
}
