package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// Memory keeps documents in a map.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]*graph.Document
	now  func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: map[string]*graph.Document{}, now: time.Now}
}

// Get returns a copy of the document named name, or ErrNotFound.
func (s *Memory) Get(ctx context.Context, name string) (*graph.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	doc, ok := s.docs[name]
	s.mu.RUnlock()

	observability.Store().OnStoreGet(ctx, BackendMemory, name, ok)
	if !ok {
		return nil, notFound(name)
	}
	return doc.Clone(), nil
}

// Put stores a copy of doc.
func (s *Memory) Put(ctx context.Context, doc *graph.Document) error {
	if err := checkName(doc.Name); err != nil {
		return err
	}
	s.mu.Lock()
	stamp(doc, s.docs[doc.Name], s.now())
	s.docs[doc.Name] = doc.Clone()
	s.mu.Unlock()

	observability.Store().OnStorePut(ctx, BackendMemory, doc.Name, len(doc.Nodes), nil)
	return nil
}

// List returns the stored names, sorted.
func (s *Memory) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.docs)), nil
}

// Close is a no-op.
func (s *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
