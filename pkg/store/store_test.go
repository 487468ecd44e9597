package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

func sampleDoc(name string) *graph.Document {
	return graph.NewDocument(name, mindmap.Snapshot{Kind: mindmap.KindTree, Nodes: []mindmap.Node{
		{Key: 1, Text: "Root", Dir: mindmap.Right, Loc: "0 0"},
		{Key: 2, Text: "Idea A", Parent: 1, Dir: mindmap.Left, Loc: "-120 0"},
	}})
}

// testStore runs the behaviour every backend must share.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "simple"); !IsNotFound(err) {
		t.Fatalf("Get on empty store: err = %v, want not found", err)
	}

	doc := sampleDoc("simple")
	if err := s.Put(ctx, doc); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if doc.Revision != 1 || doc.ID == "" || doc.UpdatedAt.IsZero() {
		t.Errorf("Put did not stamp the document: %+v", doc)
	}
	firstID := doc.ID

	got, err := s.Get(ctx, "simple")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Snapshot().Equal(doc.Snapshot()) {
		t.Errorf("stored snapshot differs:\n got %+v\nwant %+v", got.Snapshot(), doc.Snapshot())
	}

	// Mutating the returned copy must not affect the store.
	got.Nodes[0].Text = "changed"
	again, _ := s.Get(ctx, "simple")
	if again.Nodes[0].Text != "Root" {
		t.Error("Get returned a shared document")
	}

	next := sampleDoc("simple")
	if err := s.Put(ctx, next); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	if next.Revision != 2 || next.ID != firstID {
		t.Errorf("second Put: revision=%d id=%q, want 2 %q", next.Revision, next.ID, firstID)
	}

	if err := s.Put(ctx, sampleDoc("other")); err != nil {
		t.Fatalf("Put other: %v", err)
	}
	names, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "other" || names[1] != "simple" {
		t.Errorf("List = %v", names)
	}

	if err := s.Put(ctx, sampleDoc("../escape")); !mgerrors.Is(err, mgerrors.ErrCodeInvalidInput) {
		t.Errorf("bad name: err = %v, want INVALID_INPUT", err)
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	testStore(t, s)
	testConcurrentPuts(t, s)
}

func TestFile(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	testStore(t, s)
	testConcurrentPuts(t, s)

	entries, _ := os.ReadDir(s.Dir())
	for _, e := range entries {
		if e.Name()[0] == '.' {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), "bad"); err == nil || IsNotFound(err) {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestFileWatch(t *testing.T) {
	s, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, func(name string) { changed <- name }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := s.Put(ctx, sampleDoc("watched")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	select {
	case name := <-changed:
		if name != "watched" {
			t.Errorf("changed = %q, want watched", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{})
	if err != nil {
		t.Fatalf("Open default: %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("default backend = %T, want *Memory", s)
	}

	s, err = Open(ctx, Config{Backend: BackendFile, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := s.(*File); !ok {
		t.Errorf("file backend = %T", s)
	}

	if _, err := Open(ctx, Config{Backend: "etcd"}); !mgerrors.Is(err, mgerrors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}
