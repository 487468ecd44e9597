package mindmap

import (
	"slices"
)

// Tx stages mutations for [Model.Update]. Reads through a Tx observe the
// staged state. A Tx must not be retained after the update function returns.
type Tx struct {
	kind  Kind
	nodes []Node
	index map[Key]int
	links []Link

	linked map[Key]bool // tree children whose link was added in this tx
	roots  int          // parentless tree nodes before the tx
	change Change
}

// Kind returns the kind of the model being updated.
func (tx *Tx) Kind() Kind { return tx.kind }

// Node returns the staged node with the given key.
func (tx *Tx) Node(key Key) (Node, bool) {
	i, ok := tx.index[key]
	if !ok {
		return Node{}, false
	}
	return tx.nodes[i], true
}

// Children returns the staged children of key.
func (tx *Tx) Children(key Key) []Key { return childrenOf(tx.kind, tx.nodes, tx.links, key) }

// AddNode stages a new node. Tree children also need a matching [Tx.AddLink]
// before the transaction commits.
func (tx *Tx) AddNode(n Node) error {
	if n.Key == NoKey {
		return invalidGraph(ErrInvalidKey, "add node")
	}
	if _, dup := tx.index[n.Key]; dup {
		return invalidGraph(ErrDuplicateKey, "key %d", n.Key)
	}
	if tx.kind == KindTree && !n.IsRoot() {
		if _, ok := tx.index[n.Parent]; !ok {
			return &UnknownParentError{Key: n.Parent}
		}
	}
	tx.index[n.Key] = len(tx.nodes)
	tx.nodes = append(tx.nodes, n)
	tx.change.Added = append(tx.change.Added, n)
	return nil
}

// AddLink stages a link. For trees the link must connect a child to the
// parent it names.
func (tx *Tx) AddLink(l Link) error {
	from, okFrom := tx.Node(l.From)
	to, okTo := tx.Node(l.To)
	switch {
	case !okFrom:
		return invalidGraph(ErrUnknownNode, "link %s: missing source %d", l, l.From)
	case !okTo:
		return invalidGraph(ErrUnknownNode, "link %s: missing target %d", l, l.To)
	}

	if tx.kind == KindTree {
		if to.Parent != from.Key {
			return invalidGraph(ErrLinkMismatch, "link %s: node %d has parent %d", l, to.Key, to.Parent)
		}
		if tx.linked == nil {
			tx.linked = map[Key]bool{}
		}
		tx.linked[to.Key] = true
	} else {
		tx.links = append(tx.links, l)
	}
	tx.change.Links = append(tx.change.Links, l)
	return nil
}

// SetNode replaces the data of an existing node. The parent reference of a
// tree node cannot be changed. Below the children of the root a tree node
// keeps the side of its branch; its direction may only be cleared or
// restated. When a child of the root changes side, every descendant that
// names a direction moves with it.
func (tx *Tx) SetNode(n Node) error {
	i, ok := tx.index[n.Key]
	if !ok {
		return invalidGraph(ErrUnknownNode, "set node %d", n.Key)
	}
	old := tx.nodes[i]
	if old == n {
		return nil
	}
	if tx.kind == KindTree {
		if old.Parent != n.Parent {
			return invalidGraph(nil, "node %d: parent cannot change from %d to %d", n.Key, old.Parent, n.Parent)
		}
		if err := tx.checkSide(old, n); err != nil {
			return err
		}
	}

	tx.nodes[i] = n
	if old.Loc != n.Loc {
		tx.change.Moved = appendKey(tx.change.Moved, n.Key)
	}
	old.Loc = n.Loc
	if old != n {
		tx.change.Updated = appendKey(tx.change.Updated, n.Key)
	}
	if tx.kind == KindTree && old.Side() != n.Side() {
		if p, ok := tx.index[n.Parent]; ok && tx.nodes[p].IsRoot() {
			tx.restamp(n.Key, n.Side())
		}
	}
	return nil
}

// checkSide rejects a direction change on a node below a child of the root.
func (tx *Tx) checkSide(old, n Node) error {
	if old.Dir == n.Dir || n.Dir == "" {
		return nil
	}
	side, ok := branchSide(tx.nodes, tx.index, n.Key)
	if !ok || tx.nodes[tx.index[n.Parent]].IsRoot() {
		return nil
	}
	if n.Dir != side {
		return invalidGraph(ErrMixedDirection, "node %d: cannot move to %q inside a %s branch", n.Key, n.Dir, side)
	}
	return nil
}

// restamp sets the direction of every descendant of key that names one.
func (tx *Tx) restamp(key Key, side Direction) {
	for _, c := range tx.Children(key) {
		i := tx.index[c]
		if d := tx.nodes[i].Dir; d != "" && d != side {
			tx.nodes[i].Dir = side
			tx.change.Updated = appendKey(tx.change.Updated, c)
		}
		tx.restamp(c, side)
	}
}

// SetLocation stages a new location for key.
func (tx *Tx) SetLocation(key Key, p Point) error {
	i, ok := tx.index[key]
	if !ok {
		return invalidGraph(ErrUnknownNode, "set location of %d", key)
	}
	loc := p.String()
	if tx.nodes[i].Loc == loc {
		return nil
	}
	tx.nodes[i].Loc = loc
	tx.change.Moved = appendKey(tx.change.Moved, key)
	return nil
}

func (tx *Tx) replace(s Snapshot) error {
	kind := s.Kind
	if kind == "" {
		kind = tx.kind
	}
	nodes := slices.Clone(s.Nodes)
	index, err := indexNodes(nodes)
	if err != nil {
		return err
	}
	tx.kind, tx.nodes, tx.index, tx.links = kind, nodes, index, slices.Clone(s.Links)
	tx.linked = nil
	tx.change = Change{Replaced: true}
	return nil
}

// finish runs the commit-time checks. A tree transaction may not leave more
// roots than it started with once there is more than one.
func (tx *Tx) finish() error {
	if tx.kind == KindTree && !tx.change.Replaced {
		for _, n := range tx.change.Added {
			if !n.IsRoot() && !tx.linked[n.Key] {
				return invalidGraph(ErrMissingLink, "node %d", n.Key)
			}
		}
		if count := countRoots(tx.nodes); count > 1 && count > tx.roots {
			return &NoRootError{Roots: roots(tx.kind, tx.nodes, tx.links)}
		}
	}
	return checkStructure(tx.kind, tx.nodes, tx.index, tx.links)
}

func appendKey(keys []Key, k Key) []Key {
	if slices.Contains(keys, k) {
		return keys
	}
	return append(keys, k)
}
