package layout

import (
	"fmt"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// Part is a rooted set of nodes and links laid out as one tree.
// Nodes[0] is always the root.
type Part struct {
	Side  mindmap.Direction
	Nodes []mindmap.Node
	Links []mindmap.Link
}

// Root returns the anchor node of the part.
func (p Part) Root() mindmap.Node {
	if len(p.Nodes) == 0 {
		return mindmap.Node{}
	}
	return p.Nodes[0]
}

// Empty reports whether the part holds nothing besides its root.
func (p Part) Empty() bool { return len(p.Nodes) <= 1 }

// Split is the result of [Partition]: the shared root and the two fans.
type Split struct {
	Root  mindmap.Node
	Right Part
	Left  Part
}

// Side returns the part growing in dir.
func (s Split) Side(dir mindmap.Direction) Part {
	if dir == mindmap.Left {
		return s.Left
	}
	return s.Right
}

// Partition splits a tree into the rightward and leftward fans around its
// root.
//
// Only the direct children of the root are inspected: a child with dir
// "left" takes its whole subtree into the left part, any other value puts it
// on the right. Deeper nodes are not re-checked. The root is placed first in
// each non-empty part together with the connecting link, so every node and
// link of the tree appears in exactly one part apart from the shared root.
//
// Partition fails with [*mindmap.NoRootError] if the model has zero or
// several roots.
func Partition(m *mindmap.Model) (Split, error) {
	if m.Kind() != mindmap.KindTree {
		return Split{}, fmt.Errorf("partition: %s graphs have no tree halves", m.Kind())
	}
	root, err := m.Root()
	if err != nil {
		return Split{}, err
	}

	split := Split{
		Root:  root,
		Right: Part{Side: mindmap.Right},
		Left:  Part{Side: mindmap.Left},
	}
	for _, child := range m.Children(root.Key) {
		c, _ := m.Node(child)
		part := &split.Right
		if c.Dir == mindmap.Left {
			part = &split.Left
		}
		if len(part.Nodes) == 0 {
			part.Nodes = append(part.Nodes, root)
		}
		for _, k := range m.Subtree(child) {
			n, _ := m.Node(k)
			part.Nodes = append(part.Nodes, n)
			part.Links = append(part.Links, mindmap.Link{From: n.Parent, To: n.Key})
		}
	}
	return split, nil
}
