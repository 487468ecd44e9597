package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// File stores each document as <dir>/<name>.json.
type File struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time
}

// NewFile creates a file store rooted at dir.
// If dir is empty, defaults to ~/.local/share/mindgraph/graphs/.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".local", "share", "mindgraph", "graphs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &File{dir: dir, now: time.Now}, nil
}

// Dir returns the directory holding the document files.
func (s *File) Dir() string { return s.dir }

func (s *File) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Get reads the document file for name, or returns ErrNotFound.
func (s *File) Get(ctx context.Context, name string) (*graph.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.read(name)
	observability.Store().OnStoreGet(ctx, BackendFile, name, err == nil)
	return doc, err
}

func (s *File) read(name string) (*graph.Document, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(name)
		}
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	doc, err := graph.UnmarshalDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse graph file %s: %w", name, err)
	}
	doc.Name = name
	return doc, nil
}

// Put writes the document to a temporary file and renames it into place.
func (s *File) Put(ctx context.Context, doc *graph.Document) error {
	if err := checkName(doc.Name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.read(doc.Name)
	if err != nil && !IsNotFound(err) {
		return err
	}
	stamp(doc, prev, s.now())

	data, err := graph.MarshalDocument(doc)
	if err == nil {
		err = writeAtomic(s.path(doc.Name), data)
	}
	observability.Store().OnStorePut(ctx, BackendFile, doc.Name, len(doc.Nodes), err)
	return err
}

// writeAtomic writes data to a temporary file in the same directory and
// renames it over path, so readers never see a partial document.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write graph file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write graph file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace graph file: %w", err)
	}
	return nil
}

// List returns the names of the document files, sorted.
func (s *File) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if name, ok := docName(e.Name()); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Close is a no-op; File holds no open resources.
func (s *File) Close() error { return nil }

// Watch calls fn with the document name whenever a document file is created
// or replaced, including by other processes. Bursts of events for the same
// file within the debounce window are reported once. Watch blocks until ctx
// is cancelled.
func (s *File) Watch(ctx context.Context, fn func(name string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	const debounce = 50 * time.Millisecond
	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, ok := docName(filepath.Base(event.Name))
			if !ok {
				continue
			}
			pending[name] = true
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("file watcher: %w", err)
		case <-timer.C:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			clear(pending)
			slices.Sort(names)
			for _, name := range names {
				fn(name)
			}
		}
	}
}

func docName(file string) (string, bool) {
	if strings.HasPrefix(file, ".") || filepath.Ext(file) != ".json" {
		return "", false
	}
	return strings.TrimSuffix(file, ".json"), true
}

var _ Store = (*File)(nil)
