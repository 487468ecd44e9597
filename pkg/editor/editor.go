package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/mindmap/layout"
)

// ErrStale is returned when a load, save or generate response arrives after
// a newer request was issued. The response is discarded.
var ErrStale = errors.New("stale response discarded")

// Backend is the load/save boundary. *client.Client implements it.
type Backend interface {
	LoadSimple(ctx context.Context) (mindmap.Snapshot, error)
	SaveSimple(ctx context.Context, s mindmap.Snapshot) (mindmap.Snapshot, error)
	LoadLinkData(ctx context.Context) (mindmap.Snapshot, error)
	SaveLinkData(ctx context.Context, s mindmap.Snapshot) (mindmap.Snapshot, error)
	GenerateDiagram(ctx context.Context, description string) (mindmap.Snapshot, error)
}

// Options configures an Editor.
type Options struct {
	Kind   mindmap.Kind          // graph kind to load and save; empty selects KindTree
	Tree   *layout.Engine        // nil selects a default engine
	Linked layout.Strategy       // layout for linked graphs; nil leaves them as loaded
	Insert mindmap.InsertOptions // offset and default brush for new nodes
	Logger *log.Logger           // nil discards log output
}

// Editor drives one model. Every mutation runs to completion under a single
// lock; backend requests run outside it and are stamped with a sequence
// number so that only the newest response is adopted.
type Editor struct {
	mu      sync.Mutex
	model   *mindmap.Model
	alloc   *mindmap.KeyAllocator
	backend Backend
	kind    mindmap.Kind
	tree    *layout.Engine
	linked  layout.Strategy
	insert  mindmap.InsertOptions
	logger  *log.Logger
	seq     uint64
}

// New returns an editor with an empty model.
func New(backend Backend, opts Options) *Editor {
	kind := opts.Kind
	if kind == "" {
		kind = mindmap.KindTree
	}
	tree := opts.Tree
	if tree == nil {
		tree = &layout.Engine{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Editor{
		model:   mindmap.New(kind),
		alloc:   mindmap.NewKeyAllocator(),
		backend: backend,
		kind:    kind,
		tree:    tree,
		linked:  opts.Linked,
		insert:  opts.Insert,
		logger:  logger,
	}
}

// =============================================================================
// Reads
// =============================================================================

// Snapshot returns a copy of the current graph.
func (e *Editor) Snapshot() mindmap.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Snapshot()
}

// Revision returns the model revision.
func (e *Editor) Revision() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Revision()
}

// Observe registers fn for every committed change. fn runs with the editor
// lock held and must not call back into the editor.
func (e *Editor) Observe(fn mindmap.Observer) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	stop := e.model.Observe(fn)
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		stop()
	}
}

// =============================================================================
// Local mutations
// =============================================================================

// Insert adds a child node and re-lays out the half of the tree it landed
// in. The insertion is kept even if the layout fails; the layout error is
// returned alongside it.
func (e *Editor) Insert(ctx context.Context, cmd mindmap.InsertNodeCommand) (mindmap.Insertion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ins, err := mindmap.Insert(e.model, e.alloc, cmd, e.insert)
	if err != nil {
		return mindmap.Insertion{}, err
	}
	e.logger.Debug("inserted node", "key", ins.Node.Key, "parent", cmd.ParentKey, "dir", ins.Side)

	if !e.canLayout() {
		return ins, nil
	}
	if err := e.strategy().LayoutSide(ctx, e.model, ins.Side); err != nil {
		return ins, fmt.Errorf("layout after insert: %w", err)
	}
	return ins, nil
}

// Edit applies fn to a copy of node key and commits the result. Location and
// label edits go through here.
func (e *Editor) Edit(key mindmap.Key, fn func(*mindmap.Node)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Update(func(tx *mindmap.Tx) error {
		n, ok := tx.Node(key)
		if !ok {
			return fmt.Errorf("edit node %d: %w", key, mindmap.ErrUnknownNode)
		}
		fn(&n)
		n.Key = key
		return tx.SetNode(n)
	})
}

// Layout re-lays out the whole graph.
func (e *Editor) Layout(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layoutAll(ctx)
}

// =============================================================================
// Backend round trips
// =============================================================================

// Load fetches the stored graph and adopts it. On failure the current model
// is kept.
func (e *Editor) Load(ctx context.Context) error {
	seq, kind := e.begin()
	var (
		s   mindmap.Snapshot
		err error
	)
	if kind == mindmap.KindLinked {
		s, err = e.backend.LoadLinkData(ctx)
	} else {
		s, err = e.backend.LoadSimple(ctx)
	}
	return e.adopt(ctx, seq, "load", s, err)
}

// Save sends the graph as it is now and adopts the snapshot the backend
// returns. Edits made while the save is in flight are replaced by that
// snapshot. On failure the current model is kept.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	e.seq++
	seq, kind, snap := e.seq, e.kind, e.model.Snapshot()
	e.mu.Unlock()

	var (
		s   mindmap.Snapshot
		err error
	)
	if kind == mindmap.KindLinked {
		s, err = e.backend.SaveLinkData(ctx, snap)
	} else {
		s, err = e.backend.SaveSimple(ctx, snap)
	}
	return e.adopt(ctx, seq, "save", s, err)
}

// Generate replaces the graph with one generated from description. The
// editor switches to the linked kind.
func (e *Editor) Generate(ctx context.Context, description string) error {
	seq, _ := e.begin()
	s, err := e.backend.GenerateDiagram(ctx, description)
	return e.adopt(ctx, seq, "generate", s, err)
}

func (e *Editor) begin() (uint64, mindmap.Kind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	return e.seq, e.kind
}

func (e *Editor) adopt(ctx context.Context, seq uint64, op string, s mindmap.Snapshot, err error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.seq {
		e.logger.Debug("discarding stale response", "op", op, "seq", seq, "latest", e.seq)
		return ErrStale
	}
	if err != nil {
		e.logger.Warn("request failed, keeping current graph", "op", op, "err", err)
		return err
	}
	if err := e.model.Replace(s); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.kind = e.model.Kind()
	e.alloc.ObserveSnapshot(s)
	e.logger.Debug("adopted snapshot", "op", op, "nodes", len(s.Nodes), "revision", e.model.Revision())

	if op == "save" {
		return nil
	}
	if err := e.layoutAll(ctx); err != nil {
		e.logger.Warn("layout failed", "op", op, "err", err)
	}
	return nil
}

func (e *Editor) layoutAll(ctx context.Context) error {
	if e.model.Len() == 0 || !e.canLayout() {
		return nil
	}
	return e.strategy().Layout(ctx, e.model)
}

func (e *Editor) canLayout() bool {
	return e.model.Kind() != mindmap.KindLinked || e.linked != nil
}

func (e *Editor) strategy() layout.Strategy {
	return layout.ForKind(e.model.Kind(), e.tree, e.linked)
}
