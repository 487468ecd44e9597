// Package store persists graph documents by name.
//
// All backends implement [Store] and are safe for concurrent use:
//   - [Memory]: in-process map for tests and throwaway servers
//   - [File]: one JSON file per document with atomic writes and an
//     optional fsnotify watch for edits made outside the server
//   - [Redis]: go-redis backed store for shared deployments
//   - [Mongo]: MongoDB collection keyed by document name
//
// Saving is last-write-wins: [Store.Put] replaces the stored document,
// advances its revision and stamps the update time on the caller's copy.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/graph"
)

// ErrNotFound is returned by Get when no document has the requested name.
var ErrNotFound = mgerrors.New(mgerrors.ErrCodeNotFound, "graph not found")

// Store persists graph documents.
type Store interface {
	// Get returns the document stored under name, or ErrNotFound.
	Get(ctx context.Context, name string) (*graph.Document, error)

	// Put replaces the document stored under doc.Name. On success doc holds
	// the stored ID, revision and update time.
	Put(ctx context.Context, doc *graph.Document) error

	// List returns the names of all stored documents, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by [Open].
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Backend string

	// File backend
	Dir string

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// Mongo backend
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open creates the backend named by cfg.Backend. An empty backend selects
// memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendFile:
		return NewFile(cfg.Dir)
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case BackendMongo:
		return NewMongo(ctx, MongoOptions{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	default:
		return nil, mgerrors.New(mgerrors.ErrCodeUnsupported, "unknown store backend %q", cfg.Backend)
	}
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || mgerrors.Is(err, mgerrors.ErrCodeNotFound)
}

func checkName(name string) error {
	if err := mgerrors.ValidateGraphName(name); err != nil {
		return err
	}
	return nil
}

// stamp carries identity and revision over from prev and advances them.
func stamp(doc, prev *graph.Document, now time.Time) {
	doc.Revision = 0
	if prev != nil {
		doc.ID = prev.ID
		doc.Revision = prev.Revision
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.Touch(now)
}

func notFound(name string) error {
	return fmt.Errorf("%q: %w", name, ErrNotFound)
}
