package mindmap

import (
	"strings"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
)

// =============================================================================
// Insertion Protocol
// =============================================================================

// Insertion defaults.
const (
	DefaultOffset = 120.0
	DefaultBrush  = "skyblue"
)

// NodeFields are the user-supplied fields of a new node.
type NodeFields struct {
	Title       string
	Description string
	Reference   string
	Dir         Direction // Only honoured for children of the root
	Brush       string
}

// Validate checks the fields against the insertion form's constraints.
func (f NodeFields) Validate() error {
	if err := mgerrors.ValidateTitle(f.Title); err != nil {
		return err
	}
	if err := mgerrors.ValidateDescription(f.Description); err != nil {
		return err
	}
	if _, err := ParseDirection(string(f.Dir)); err != nil {
		return mgerrors.Invalid("dir", "%v", err)
	}
	return nil
}

// InsertNodeCommand asks for a new child under ParentKey.
type InsertNodeCommand struct {
	ParentKey Key
	Fields    NodeFields
}

// InsertOptions tune the seed position and defaults of new nodes.
// Zero values select [DefaultOffset] and [DefaultBrush].
type InsertOptions struct {
	Offset       float64
	DefaultBrush string
}

func (o InsertOptions) withDefaults() InsertOptions {
	if o.Offset == 0 {
		o.Offset = DefaultOffset
	}
	if o.DefaultBrush == "" {
		o.DefaultBrush = DefaultBrush
	}
	return o
}

// Insertion is the result of a committed insert.
type Insertion struct {
	Node     Node      // The new node with key, direction and seed location
	Link     Link      // Parent to new node
	Side     Direction // Half of the tree that needs a new layout
	Affected []Key     // Root plus the top-level branch containing Node
}

// ResolveDirection picks the growth direction of a new child.
//
// Children of the root take the requested direction, or Right when none is
// given. Below the root the parent's direction always wins and the request
// is ignored, so a branch never mixes sides.
func ResolveDirection(parent Node, requested Direction) Direction {
	if parent.IsRoot() {
		if requested == Left {
			return Left
		}
		return Right
	}
	return parent.Side()
}

// resolveIn is ResolveDirection with the root test appropriate to kind.
// In linked graphs a node is a root when nothing links to it.
func resolveIn(kind Kind, links []Link, parent Node, requested Direction) Direction {
	if kind != KindLinked {
		return ResolveDirection(parent, requested)
	}
	for _, l := range links {
		if l.To == parent.Key {
			return parent.Side()
		}
	}
	p := parent
	p.Parent = NoKey
	return ResolveDirection(p, requested)
}

// newChild builds the node and link for cmd under parent.
func newChild(kind Kind, links []Link, parent Node, key Key, cmd InsertNodeCommand, opts InsertOptions) (Node, Link) {
	f := cmd.Fields
	dir := resolveIn(kind, links, parent, f.Dir)

	origin, err := parent.Location()
	if err != nil {
		origin = Point{}
	}
	brush := f.Brush
	if brush == "" {
		brush = opts.DefaultBrush
	}
	title := strings.TrimSpace(f.Title)

	n := Node{
		Key:         key,
		Text:        strings.TrimSpace(f.Reference + " " + title),
		Name:        title,
		Reference:   f.Reference,
		Description: f.Description,
		Dir:         dir,
		Loc:         origin.Add(dir.Sign()*opts.Offset, 0).String(),
		Brush:       brush,
	}
	if kind == KindLinked {
		n.Group = parent.Group
	} else {
		n.Parent = parent.Key
	}
	return n, Link{From: parent.Key, To: key}
}

// ApplyInsert is the pure form of [Insert]: it returns a new snapshot with
// the child added under cmd.ParentKey using key as its identity. s is not
// modified.
func ApplyInsert(s Snapshot, key Key, cmd InsertNodeCommand, opts InsertOptions) (Snapshot, Insertion, error) {
	if err := cmd.Fields.Validate(); err != nil {
		return s, Insertion{}, err
	}
	m, err := FromSnapshot(s)
	if err != nil {
		return s, Insertion{}, err
	}
	ins, err := insertKey(m, key, cmd, opts.withDefaults())
	if err != nil {
		return s, Insertion{}, err
	}
	return m.Snapshot(), ins, nil
}

// Insert adds a child under cmd.ParentKey and commits the node and its link
// in one transaction. An unknown parent fails with [*UnknownParentError]
// before any key is allocated. On any error the model is unchanged.
func Insert(m *Model, alloc *KeyAllocator, cmd InsertNodeCommand, opts InsertOptions) (Insertion, error) {
	if err := cmd.Fields.Validate(); err != nil {
		return Insertion{}, err
	}
	if _, ok := m.Node(cmd.ParentKey); !ok {
		return Insertion{}, &UnknownParentError{Key: cmd.ParentKey}
	}
	for _, n := range m.nodes {
		alloc.Observe(n.Key)
	}
	return insertKey(m, alloc.Next(), cmd, opts.withDefaults())
}

func insertKey(m *Model, key Key, cmd InsertNodeCommand, opts InsertOptions) (Insertion, error) {
	parent, ok := m.Node(cmd.ParentKey)
	if !ok {
		return Insertion{}, &UnknownParentError{Key: cmd.ParentKey}
	}
	if m.kind == KindTree {
		// A parent without a direction of its own grows on its branch's side.
		if side, ok := branchSide(m.nodes, m.index, parent.Key); ok {
			parent.Dir = side
		}
	}
	node, link := newChild(m.kind, m.links, parent, key, cmd, opts)

	err := m.Update(func(tx *Tx) error {
		if err := tx.AddNode(node); err != nil {
			return err
		}
		return tx.AddLink(link)
	})
	if err != nil {
		return Insertion{}, err
	}
	return Insertion{
		Node:     node,
		Link:     link,
		Side:     node.Side(),
		Affected: m.affected(node.Key),
	}, nil
}

// affected returns the root followed by the top-level branch containing key.
func (m *Model) affected(key Key) []Key {
	if m.kind == KindLinked {
		return m.Subtree(key)
	}
	branch := key
	for {
		n, ok := m.Node(branch)
		if !ok || n.IsRoot() {
			return m.Subtree(branch)
		}
		p, _ := m.Node(n.Parent)
		if p.IsRoot() {
			return append([]Key{p.Key}, m.Subtree(branch)...)
		}
		branch = p.Key
	}
}
