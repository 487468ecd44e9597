package mindmap

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// =============================================================================
// Keys & Directions
// =============================================================================

// Key identifies a node. Keys are unique within a model and never zero.
type Key int

// NoKey is the zero Key. As a parent reference it means "no parent".
const NoKey Key = 0

// Direction is the horizontal half-plane a subtree grows into.
type Direction string

// Growth directions.
const (
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection converts user input to a Direction.
// The empty string is accepted and returned unchanged so callers can apply
// their own default.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case "", Left, Right:
		return d, nil
	default:
		return "", fmt.Errorf("invalid direction %q (must be left or right)", s)
	}
}

// Opposite returns the mirrored direction. Anything that is not Left is
// treated as Right.
func (d Direction) Opposite() Direction {
	if d == Left {
		return Right
	}
	return Left
}

// Sign is -1 for Left and +1 otherwise.
func (d Direction) Sign() float64 {
	if d == Left {
		return -1
	}
	return 1
}

// =============================================================================
// Points
// =============================================================================

// Point is a 2D location in diagram coordinates.
type Point struct {
	X, Y float64
}

// ParsePoint parses the "x y" form used in node data.
func ParsePoint(s string) (Point, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("invalid point %q: want \"x y\"", s)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return Point{X: x, Y: y}, nil
}

// String formats p as "x y" with the shortest exact representation,
// e.g. "-120 0".
func (p Point) String() string {
	return strconv.FormatFloat(p.X, 'f', -1, 64) + " " + strconv.FormatFloat(p.Y, 'f', -1, 64)
}

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy float64) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

// =============================================================================
// Nodes & Links
// =============================================================================

// Node is one element of a diagram. The field set is the union of what the
// tree and linked kinds carry; unused fields stay empty.
type Node struct {
	Key         Key       `json:"key" bson:"key" yaml:"key"`
	Text        string    `json:"text,omitempty" bson:"text,omitempty" yaml:"text,omitempty"`
	Name        string    `json:"name,omitempty" bson:"name,omitempty" yaml:"name,omitempty"`
	Reference   string    `json:"reference,omitempty" bson:"reference,omitempty" yaml:"reference,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Parent      Key       `json:"parent,omitempty" bson:"parent,omitempty" yaml:"parent,omitempty"`
	Dir         Direction `json:"dir,omitempty" bson:"dir,omitempty" yaml:"dir,omitempty"`
	Loc         string    `json:"loc,omitempty" bson:"loc,omitempty" yaml:"loc,omitempty"`
	Brush       string    `json:"brush,omitempty" bson:"brush,omitempty" yaml:"brush,omitempty"`

	// Linked-kind fields.
	Group   Key    `json:"group,omitempty" bson:"group,omitempty" yaml:"group,omitempty"`
	IsGroup bool   `json:"isGroup,omitempty" bson:"is_group,omitempty" yaml:"isGroup,omitempty"`
	Color   string `json:"color,omitempty" bson:"color,omitempty" yaml:"color,omitempty"`
}

// IsRoot reports whether the node has no parent reference.
func (n Node) IsRoot() bool { return n.Parent == NoKey }

// Location parses Loc. Nodes without a location are at the origin.
func (n Node) Location() (Point, error) {
	if strings.TrimSpace(n.Loc) == "" {
		return Point{}, nil
	}
	return ParsePoint(n.Loc)
}

// Side returns the node's direction with the empty value read as Right.
func (n Node) Side() Direction {
	if n.Dir == Left {
		return Left
	}
	return Right
}

// Label returns Text, falling back to Name and then the key.
func (n Node) Label() string {
	switch {
	case n.Text != "":
		return n.Text
	case n.Name != "":
		return n.Name
	default:
		return strconv.Itoa(int(n.Key))
	}
}

// Link connects a parent (From) to a child (To).
type Link struct {
	From Key    `json:"from" bson:"from" yaml:"from"`
	To   Key    `json:"to" bson:"to" yaml:"to"`
	Text string `json:"text,omitempty" bson:"text,omitempty" yaml:"text,omitempty"`
}

func (l Link) String() string { return fmt.Sprintf("%d→%d", l.From, l.To) }

// =============================================================================
// Snapshots
// =============================================================================

// Kind selects the structural rules and layout strategy of a model.
type Kind string

// Model kinds.
const (
	KindTree   Kind = "tree"
	KindLinked Kind = "linked"
)

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTree, KindLinked:
		return k, nil
	case "", "simple":
		return KindTree, nil
	case "linkdata", "link-data":
		return KindLinked, nil
	default:
		return "", fmt.Errorf("invalid graph kind %q (must be tree or linked)", s)
	}
}

// Snapshot is a self-contained copy of a model's nodes and links.
// For KindTree, Links is empty; links are derived from parent references.
type Snapshot struct {
	Kind  Kind   `json:"kind" bson:"kind" yaml:"kind"`
	Nodes []Node `json:"nodes" bson:"nodes" yaml:"nodes"`
	Links []Link `json:"links,omitempty" bson:"links,omitempty" yaml:"links,omitempty"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Kind:  s.Kind,
		Nodes: slices.Clone(s.Nodes),
		Links: slices.Clone(s.Links),
	}
}

// MaxKey returns the largest key in the snapshot, or NoKey if it is empty.
func (s Snapshot) MaxKey() Key {
	maxKey := NoKey
	for _, n := range s.Nodes {
		if n.Key > maxKey {
			maxKey = n.Key
		}
	}
	return maxKey
}

// Equal reports whether two snapshots hold the same nodes and links in the
// same order.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.Kind != o.Kind {
		return false
	}
	return slices.Equal(s.Nodes, o.Nodes) && slices.Equal(s.Links, o.Links)
}
