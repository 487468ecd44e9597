// Package config loads the mindgraph configuration file.
//
// The file lives at $XDG_CONFIG_HOME/mindgraph/config.toml (or
// ~/.config/mindgraph/config.toml). A missing file means defaults;
// command-line flags override whatever the file sets.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mindgraph/pkg/client"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/mindmap/layout"
	"github.com/matzehuels/mindgraph/pkg/server"
	"github.com/matzehuels/mindgraph/pkg/store"
)

const appName = "mindgraph"

// Config holds mindgraph configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Client ClientConfig `toml:"client"`
	Layout LayoutConfig `toml:"layout"`
}

// ServerConfig controls `mindgraph serve`.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// StoreConfig selects where the server keeps graphs.
type StoreConfig struct {
	Backend string      `toml:"backend"` // "memory", "file", "redis", "mongo"
	Dir     string      `toml:"dir"`
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig configures the redis store backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig configures the mongo store backend.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ClientConfig controls how CLI commands reach the server.
type ClientConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
}

// LayoutConfig tunes node placement.
type LayoutConfig struct {
	Offset       float64 `toml:"offset"`
	NodeSpacing  float64 `toml:"node_spacing"`
	LayerSpacing float64 `toml:"layer_spacing"`
	DefaultBrush string  `toml:"default_brush"`
	// FontSize is the label size in points used to measure tree nodes.
	// Zero falls back to a per-character estimate.
	FontSize float64 `toml:"font_size"`
}

// DefaultFontSize matches the Graphviz label size used by the renderer.
const DefaultFontSize = 14

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: server.DefaultAddr},
		Store:  StoreConfig{Backend: store.BackendFile},
		Client: ClientConfig{
			BaseURL:        client.DefaultBaseURL,
			TimeoutSeconds: int(client.DefaultTimeout / time.Second),
			Retries:        client.DefaultAttempts,
		},
		Layout: LayoutConfig{
			Offset:       mindmap.DefaultOffset,
			NodeSpacing:  layout.DefaultNodeSpacing,
			LayerSpacing: layout.DefaultLayerSpacing,
			DefaultBrush: mindmap.DefaultBrush,
			FontSize:     DefaultFontSize,
		},
	}
}

// Dir returns the mindgraph config directory.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName)
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file. A missing file yields defaults; a malformed
// one is an error.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config file at path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to the config file.
func Save(cfg *Config) error {
	return SaveFile(cfg, Path())
}

// SaveFile writes cfg to path, creating parent directories.
func SaveFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists writes the defaults unless a config file already exists.
// It reports whether a file was created.
func EnsureExists() (bool, error) {
	return EnsureFile(Path())
}

// EnsureFile is [EnsureExists] for an explicit path.
func EnsureFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	return true, SaveFile(Default(), path)
}

// StoreOptions converts the store section for [store.Open].
func (c *Config) StoreOptions() store.Config {
	return store.Config{
		Backend:         c.Store.Backend,
		Dir:             c.Store.Dir,
		RedisAddr:       c.Store.Redis.Addr,
		RedisPassword:   c.Store.Redis.Password,
		RedisDB:         c.Store.Redis.DB,
		RedisPrefix:     c.Store.Redis.Prefix,
		MongoURI:        c.Store.Mongo.URI,
		MongoDatabase:   c.Store.Mongo.Database,
		MongoCollection: c.Store.Mongo.Collection,
	}
}

// Timeout returns the client timeout, or the client default when unset.
func (c *Config) Timeout() time.Duration {
	if c.Client.TimeoutSeconds <= 0 {
		return client.DefaultTimeout
	}
	return time.Duration(c.Client.TimeoutSeconds) * time.Second
}

// InsertOptions returns the insertion settings.
func (c *Config) InsertOptions() mindmap.InsertOptions {
	return mindmap.InsertOptions{Offset: c.Layout.Offset, DefaultBrush: c.Layout.DefaultBrush}
}

// Engine returns a tree layout engine with the configured spacing and
// label metrics.
func (c *Config) Engine() (*layout.Engine, error) {
	e := &layout.Engine{NodeSpacing: c.Layout.NodeSpacing, LayerSpacing: c.Layout.LayerSpacing}
	if c.Layout.FontSize > 0 {
		sizer, err := layout.FontSizer(c.Layout.FontSize)
		if err != nil {
			return nil, err
		}
		e.Layouter = layout.TreeLayout{Sizer: sizer}
	}
	return e, nil
}
