package mindmap

import (
	"slices"
)

// =============================================================================
// Model - Canonical Graph State
// =============================================================================

// Change describes one committed transaction.
type Change struct {
	Revision uint64 // Model revision after the commit
	Added    []Node // Nodes added, in insertion order
	Links    []Link // Links added (derived links included for trees)
	Updated  []Key  // Nodes whose data changed
	Moved    []Key  // Nodes whose location changed
	Replaced bool   // The whole model was replaced by a snapshot
}

// Empty reports whether the change carries no mutation.
func (c Change) Empty() bool {
	return !c.Replaced && len(c.Added) == 0 && len(c.Links) == 0 && len(c.Updated) == 0 && len(c.Moved) == 0
}

// Observer receives committed changes.
type Observer func(Change)

type observerEntry struct {
	id int
	fn Observer
}

// Model is the single source of truth for one diagram.
//
// The zero value is not usable; create models with [New] or [FromSnapshot].
// Model is not safe for concurrent use.
type Model struct {
	kind  Kind
	nodes []Node
	index map[Key]int
	links []Link // KindLinked only

	revision  uint64
	observers []observerEntry
	nextObsID int
	notifying bool
	deferred  []func(*Tx) error
}

// New creates an empty model of the given kind.
func New(kind Kind) *Model {
	if kind == "" {
		kind = KindTree
	}
	return &Model{kind: kind, index: map[Key]int{}}
}

// FromSnapshot builds a model from a snapshot after checking referential
// integrity and, for trees, that no branch mixes sides. Tree snapshots may
// contain several roots; [Model.Validate] and [Model.Root] enforce the
// single-root rule where it matters.
func FromSnapshot(s Snapshot) (*Model, error) {
	m := New(s.Kind)
	if err := m.load(s); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) load(s Snapshot) error {
	kind := s.Kind
	if kind == "" {
		kind = m.kind
	}
	nodes := slices.Clone(s.Nodes)
	links := slices.Clone(s.Links)
	index, err := indexNodes(nodes)
	if err != nil {
		return err
	}
	if err := checkStructure(kind, nodes, index, links); err != nil {
		return err
	}
	m.kind, m.nodes, m.index, m.links = kind, nodes, index, links
	return nil
}

// Kind returns the model kind.
func (m *Model) Kind() Kind { return m.kind }

// Revision returns a counter incremented on every committed change.
func (m *Model) Revision() uint64 { return m.revision }

// Len returns the number of nodes.
func (m *Model) Len() int { return len(m.nodes) }

// Node returns the node with the given key.
func (m *Model) Node(key Key) (Node, bool) {
	i, ok := m.index[key]
	if !ok {
		return Node{}, false
	}
	return m.nodes[i], true
}

// Nodes returns a copy of all nodes in model order.
func (m *Model) Nodes() []Node { return slices.Clone(m.nodes) }

// Links returns every link. Tree links are derived from parent references in
// node order.
func (m *Model) Links() []Link { return linksOf(m.kind, m.nodes, m.links) }

func linksOf(kind Kind, nodes []Node, links []Link) []Link {
	if kind == KindLinked {
		return slices.Clone(links)
	}
	var out []Link
	for _, n := range nodes {
		if !n.IsRoot() {
			out = append(out, Link{From: n.Parent, To: n.Key})
		}
	}
	return out
}

// Children returns the keys of the direct children of key, in model order.
func (m *Model) Children(key Key) []Key { return childrenOf(m.kind, m.nodes, m.links, key) }

func childrenOf(kind Kind, nodes []Node, links []Link, key Key) []Key {
	var out []Key
	if kind == KindLinked {
		for _, l := range links {
			if l.From == key {
				out = append(out, l.To)
			}
		}
		return out
	}
	for _, n := range nodes {
		if n.Parent == key && !n.IsRoot() {
			out = append(out, n.Key)
		}
	}
	return out
}

// Subtree returns key followed by every node reachable from it, depth first.
// Each node appears once even if the linked graph has several paths to it.
func (m *Model) Subtree(key Key) []Key {
	if _, ok := m.index[key]; !ok {
		return nil
	}
	seen := map[Key]bool{}
	var out []Key
	var visit func(Key)
	visit = func(k Key) {
		if seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
		for _, c := range m.Children(k) {
			visit(c)
		}
	}
	visit(key)
	return out
}

// Root returns the single root node. It fails with [*NoRootError] when the
// model has zero or several roots.
func (m *Model) Root() (Node, error) {
	key, err := checkRoot(m.kind, m.nodes, m.links)
	if err != nil {
		return Node{}, err
	}
	n, _ := m.Node(key)
	return n, nil
}

// Validate checks every structural invariant, including the single-root rule
// for non-empty trees.
func (m *Model) Validate() error {
	if err := checkStructure(m.kind, m.nodes, m.index, m.links); err != nil {
		return err
	}
	if m.kind == KindTree && len(m.nodes) > 0 {
		if _, err := checkRoot(m.kind, m.nodes, m.links); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns a deep copy of the model.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{Kind: m.kind, Nodes: slices.Clone(m.nodes)}
	if m.kind == KindLinked {
		s.Links = slices.Clone(m.links)
	}
	return s
}

// =============================================================================
// Mutation
// =============================================================================

// Observe registers fn to be called after every committed change. The
// returned function unregisters it.
func (m *Model) Observe(fn Observer) (cancel func()) {
	m.nextObsID++
	id := m.nextObsID
	m.observers = append(m.observers, observerEntry{id: id, fn: fn})
	return func() {
		m.observers = slices.DeleteFunc(m.observers, func(e observerEntry) bool { return e.id == id })
	}
}

// Update runs fn against a staged copy of the model and commits the result
// only if fn returns nil and the staged graph is structurally valid.
// Observers are notified once after the commit.
//
// Calling Update from inside an observer queues fn until the current
// notification has finished and returns [ErrDeferred]. Errors from deferred
// updates are dropped; a failed deferred update leaves the model unchanged.
func (m *Model) Update(fn func(*Tx) error) error {
	if m.notifying {
		m.deferred = append(m.deferred, fn)
		return ErrDeferred
	}

	tx := m.begin()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.finish(); err != nil {
		return err
	}
	if tx.change.Empty() {
		return nil
	}

	m.kind, m.nodes, m.index, m.links = tx.kind, tx.nodes, tx.index, tx.links
	m.revision++
	tx.change.Revision = m.revision
	m.notify(tx.change)
	return nil
}

// Replace adopts s wholesale, e.g. the authoritative snapshot returned by a
// save. On error the model is unchanged.
func (m *Model) Replace(s Snapshot) error {
	if m.notifying {
		m.deferred = append(m.deferred, func(tx *Tx) error { return tx.replace(s) })
		return ErrDeferred
	}
	if err := m.load(s); err != nil {
		return err
	}
	m.revision++
	m.notify(Change{Revision: m.revision, Replaced: true})
	return nil
}

// SetLocations writes node locations in a single transaction.
func (m *Model) SetLocations(locs map[Key]Point) error {
	if len(locs) == 0 {
		return nil
	}
	keys := make([]Key, 0, len(locs))
	for k := range locs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return m.Update(func(tx *Tx) error {
		for _, k := range keys {
			if err := tx.SetLocation(k, locs[k]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *Model) notify(c Change) {
	observers := slices.Clone(m.observers)
	m.notifying = true
	for _, o := range observers {
		o.fn(c)
	}
	m.notifying = false

	for len(m.deferred) > 0 {
		fn := m.deferred[0]
		m.deferred = m.deferred[1:]
		_ = m.Update(fn)
	}
}

func (m *Model) begin() *Tx {
	index := make(map[Key]int, len(m.index))
	for k, v := range m.index {
		index[k] = v
	}
	return &Tx{
		kind:  m.kind,
		nodes: slices.Clone(m.nodes),
		index: index,
		links: slices.Clone(m.links),
		roots: countRoots(m.nodes),
	}
}
