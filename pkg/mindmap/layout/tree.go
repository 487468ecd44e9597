package layout

import (
	"context"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// =============================================================================
// Layout Capability
// =============================================================================

// Arrangement controls how tree roots are treated.
type Arrangement string

// Arrangements.
const (
	// FixedRoots keeps every root at its current location.
	FixedRoots Arrangement = "fixed-roots"
)

// Default spacing between siblings and between layers.
const (
	DefaultNodeSpacing  = 5.0
	DefaultLayerSpacing = 20.0
)

// Config parametrises one layout run.
type Config struct {
	Angle        float64 // 0 grows right, 180 left, 90 down, 270 up
	NodeSpacing  float64
	LayerSpacing float64
	Arrangement  Arrangement
}

// ConfigFor returns the default configuration for the half growing in dir.
func ConfigFor(dir mindmap.Direction) Config {
	cfg := Config{
		NodeSpacing:  DefaultNodeSpacing,
		LayerSpacing: DefaultLayerSpacing,
		Arrangement:  FixedRoots,
	}
	if dir == mindmap.Left {
		cfg.Angle = 180
	}
	return cfg
}

// Layouter computes locations for the nodes of a part.
// It only reads the part; the returned map holds new locations keyed by node.
type Layouter interface {
	Layout(ctx context.Context, p Part, cfg Config) (map[mindmap.Key]mindmap.Point, error)
}

// LayouterFunc adapts a function to the [Layouter] interface.
type LayouterFunc func(ctx context.Context, p Part, cfg Config) (map[mindmap.Key]mindmap.Point, error)

// Layout calls f.
func (f LayouterFunc) Layout(ctx context.Context, p Part, cfg Config) (map[mindmap.Key]mindmap.Point, error) {
	return f(ctx, p, cfg)
}

// =============================================================================
// Node Sizes
// =============================================================================

// Size is the extent of a node's box.
type Size struct {
	W, H float64
}

// Minimum node extent.
const (
	MinNodeWidth  = 30.0
	MinNodeHeight = 15.0
)

// Sizer estimates the box of a node.
type Sizer func(mindmap.Node) Size

// TextSizer estimates width from the label length at 7 units per rune plus
// padding. Boxes are never smaller than MinNodeWidth x MinNodeHeight.
func TextSizer(n mindmap.Node) Size {
	w := float64(utf8.RuneCountInString(n.Label()))*7 + labelPadding
	return Size{W: math.Max(w, MinNodeWidth), H: MinNodeHeight}
}

// =============================================================================
// TreeLayout
// =============================================================================

// TreeLayout is a layered tree arrangement. Each depth of the tree is one
// layer; a layer starts after the widest node of the previous one plus the
// layer spacing. Siblings are stacked by the breadth of their subtrees and
// centred on their parent. The root stays where it is.
type TreeLayout struct {
	Sizer Sizer // nil selects TextSizer
}

type treeNode struct {
	node     mindmap.Node
	size     Size
	depth    int
	children []*treeNode
	breadth  float64
	offset   float64 // centre along the breadth axis, relative to the root
}

// Layout implements [Layouter].
func (t TreeLayout) Layout(ctx context.Context, p Part, cfg Config) (map[mindmap.Key]mindmap.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.Nodes) == 0 {
		return nil, nil
	}
	if cfg.NodeSpacing < 0 || cfg.LayerSpacing < 0 {
		return nil, fmt.Errorf("tree layout: negative spacing")
	}
	angle := math.Mod(cfg.Angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle != 0 && angle != 90 && angle != 180 && angle != 270 {
		return nil, fmt.Errorf("tree layout: unsupported angle %v", cfg.Angle)
	}
	vertical := angle == 90 || angle == 270

	sizer := t.Sizer
	if sizer == nil {
		sizer = TextSizer
	}

	root, err := buildTree(p, sizer)
	if err != nil {
		return nil, err
	}

	// Extent of each layer along the growth axis.
	var layerExtent []float64
	var walk func(*treeNode)
	walk = func(n *treeNode) {
		for len(layerExtent) <= n.depth {
			layerExtent = append(layerExtent, 0)
		}
		layerExtent[n.depth] = math.Max(layerExtent[n.depth], growth(n.size, vertical))
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)

	layerPos := make([]float64, len(layerExtent))
	for d := 1; d < len(layerExtent); d++ {
		layerPos[d] = layerPos[d-1] + layerExtent[d-1]/2 + cfg.LayerSpacing + layerExtent[d]/2
	}

	measure(root, cfg.NodeSpacing, vertical)
	place(root, 0, cfg.NodeSpacing)

	origin, err := root.node.Location()
	if err != nil {
		origin = mindmap.Point{}
	}

	out := make(map[mindmap.Key]mindmap.Point, len(p.Nodes))
	var emit func(*treeNode)
	emit = func(n *treeNode) {
		g, b := layerPos[n.depth], n.offset
		var pt mindmap.Point
		switch angle {
		case 0:
			pt = origin.Add(g, b)
		case 180:
			pt = origin.Add(-g, b)
		case 90:
			pt = origin.Add(b, g)
		case 270:
			pt = origin.Add(b, -g)
		}
		out[n.node.Key] = pt
		for _, c := range n.children {
			emit(c)
		}
	}
	emit(root)
	return out, nil
}

func growth(s Size, vertical bool) float64 {
	if vertical {
		return s.H
	}
	return s.W
}

func breadthOf(s Size, vertical bool) float64 {
	if vertical {
		return s.W
	}
	return s.H
}

// buildTree links the part's nodes through its links, starting at Nodes[0].
func buildTree(p Part, sizer Sizer) (*treeNode, error) {
	byKey := make(map[mindmap.Key]*treeNode, len(p.Nodes))
	for _, n := range p.Nodes {
		byKey[n.Key] = &treeNode{node: n, size: sizer(n)}
	}
	for _, l := range p.Links {
		from, to := byKey[l.From], byKey[l.To]
		if from == nil || to == nil {
			return nil, fmt.Errorf("tree layout: link %s leaves the part", l)
		}
		from.children = append(from.children, to)
	}

	root := byKey[p.Nodes[0].Key]
	seen := map[mindmap.Key]bool{}
	var depth func(*treeNode, int) error
	depth = func(n *treeNode, d int) error {
		if seen[n.node.Key] {
			return fmt.Errorf("tree layout: node %d reached twice", n.node.Key)
		}
		seen[n.node.Key] = true
		n.depth = d
		for _, c := range n.children {
			if err := depth(c, d+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := depth(root, 0); err != nil {
		return nil, err
	}
	return root, nil
}

// measure computes the breadth every subtree occupies.
func measure(n *treeNode, spacing float64, vertical bool) float64 {
	own := breadthOf(n.size, vertical)
	if len(n.children) == 0 {
		n.breadth = own
		return own
	}
	total := 0.0
	for i, c := range n.children {
		if i > 0 {
			total += spacing
		}
		total += measure(c, spacing, vertical)
	}
	n.breadth = math.Max(own, total)
	return n.breadth
}

// place centres the children of n around center.
func place(n *treeNode, center, spacing float64) {
	n.offset = center
	total := -spacing
	for _, c := range n.children {
		total += c.breadth + spacing
	}
	cur := center - total/2
	for _, c := range n.children {
		place(c, cur+c.breadth/2, spacing)
		cur += c.breadth + spacing
	}
}
