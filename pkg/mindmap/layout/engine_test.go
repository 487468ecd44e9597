package layout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

func TestTreeLayoutStacksChildren(t *testing.T) {
	part := Part{
		Side: mindmap.Right,
		Nodes: []mindmap.Node{
			{Key: 1, Text: "R", Loc: "0 0"},
			{Key: 2, Text: "a", Parent: 1},
			{Key: 3, Text: "b", Parent: 1},
		},
		Links: []mindmap.Link{{From: 1, To: 2}, {From: 1, To: 3}},
	}

	tests := []struct {
		name  string
		angle float64
		want  map[mindmap.Key]mindmap.Point
	}{
		{"right", 0, map[mindmap.Key]mindmap.Point{1: {}, 2: {X: 50, Y: -10}, 3: {X: 50, Y: 10}}},
		{"left", 180, map[mindmap.Key]mindmap.Point{1: {}, 2: {X: -50, Y: -10}, 3: {X: -50, Y: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ConfigFor(mindmap.Right)
			cfg.Angle = tt.angle
			got, err := TreeLayout{}.Layout(context.Background(), part, cfg)
			if err != nil {
				t.Fatalf("Layout: %v", err)
			}
			for k, want := range tt.want {
				if got[k] != want {
					t.Errorf("node %d at %v, want %v", k, got[k], want)
				}
			}
		})
	}
}

func TestTreeLayoutRejectsOddAngle(t *testing.T) {
	part := Part{Nodes: []mindmap.Node{{Key: 1}}}
	_, err := TreeLayout{}.Layout(context.Background(), part, Config{Angle: 45})
	if err == nil {
		t.Fatal("expected error for 45°")
	}
}

func TestTreeLayoutSubtreeBreadth(t *testing.T) {
	// The first child carries two grandchildren, so it needs more room than
	// its leaf sibling and the siblings must not overlap.
	part := Part{
		Nodes: []mindmap.Node{
			{Key: 1, Loc: "0 0"},
			{Key: 2, Parent: 1},
			{Key: 3, Parent: 1},
			{Key: 4, Parent: 2},
			{Key: 5, Parent: 2},
		},
		Links: []mindmap.Link{{From: 1, To: 2}, {From: 1, To: 3}, {From: 2, To: 4}, {From: 2, To: 5}},
	}
	got, err := TreeLayout{}.Layout(context.Background(), part, ConfigFor(mindmap.Right))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	// breadth(2) = 15+5+15 = 35, breadth(3) = 15, total 55.
	if got[2].Y != -10 || got[3].Y != 20 {
		t.Errorf("children at y=%v,%v want -10,20", got[2].Y, got[3].Y)
	}
	if got[4].Y != -20 || got[5].Y != 0 {
		t.Errorf("grandchildren at y=%v,%v want -20,0", got[4].Y, got[5].Y)
	}
	if got[4].X <= got[2].X {
		t.Errorf("grandchild x %v not beyond child x %v", got[4].X, got[2].X)
	}
}

func TestEngineLayout(t *testing.T) {
	m := model(t,
		mindmap.Node{Key: 1, Text: "R", Loc: "100 50"},
		mindmap.Node{Key: 2, Text: "a", Parent: 1, Dir: mindmap.Right},
		mindmap.Node{Key: 3, Text: "b", Parent: 1, Dir: mindmap.Left},
	)
	var changes []mindmap.Change
	m.Observe(func(c mindmap.Change) { changes = append(changes, c) })

	if err := NewEngine(TreeLayout{}).Layout(context.Background(), m); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d notifications, want 1", len(changes))
	}
	want := map[mindmap.Key]string{1: "100 50", 2: "150 50", 3: "50 50"}
	for k, loc := range want {
		if n, _ := m.Node(k); n.Loc != loc {
			t.Errorf("node %d loc = %q, want %q", k, n.Loc, loc)
		}
	}
}

func TestEngineLayoutSide(t *testing.T) {
	m := model(t,
		mindmap.Node{Key: 1, Text: "R", Loc: "0 0"},
		mindmap.Node{Key: 2, Text: "a", Parent: 1, Dir: mindmap.Right, Loc: "7 7"},
		mindmap.Node{Key: 3, Text: "b", Parent: 1, Dir: mindmap.Left, Loc: "9 9"},
	)
	if err := NewEngine(nil).LayoutSide(context.Background(), m, mindmap.Left); err != nil {
		t.Fatalf("LayoutSide: %v", err)
	}
	if n, _ := m.Node(2); n.Loc != "7 7" {
		t.Errorf("right node moved to %q", n.Loc)
	}
	if n, _ := m.Node(3); n.Loc != "-50 0" {
		t.Errorf("left node at %q, want -50 0", n.Loc)
	}
}

func TestEngineNoChildrenIsNoop(t *testing.T) {
	m := model(t, mindmap.Node{Key: 1, Loc: "0 0"})
	called := false
	eng := NewEngine(LayouterFunc(func(context.Context, Part, Config) (map[mindmap.Key]mindmap.Point, error) {
		called = true
		return nil, nil
	}))
	if err := eng.Layout(context.Background(), m); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if called || m.Revision() != 0 {
		t.Error("layout ran for a childless root")
	}
}

func TestEngineLeavesModelOnError(t *testing.T) {
	t.Run("no root", func(t *testing.T) {
		m := model(t, mindmap.Node{Key: 1}, mindmap.Node{Key: 2})
		before := m.Snapshot()
		err := NewEngine(nil).Layout(context.Background(), m)
		var nre *mindmap.NoRootError
		if !errors.As(err, &nre) {
			t.Fatalf("err = %v, want *NoRootError", err)
		}
		if !m.Snapshot().Equal(before) {
			t.Error("model modified")
		}
	})

	t.Run("second side fails", func(t *testing.T) {
		m := sampleTree(t)
		before := m.Snapshot()
		boom := errors.New("boom")
		eng := NewEngine(LayouterFunc(func(ctx context.Context, p Part, cfg Config) (map[mindmap.Key]mindmap.Point, error) {
			if p.Side == mindmap.Left {
				return nil, boom
			}
			return TreeLayout{}.Layout(ctx, p, cfg)
		}))
		if err := eng.Layout(context.Background(), m); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
		if !m.Snapshot().Equal(before) {
			t.Error("right side committed without the left side")
		}
	})
}

func TestForKind(t *testing.T) {
	eng := &Engine{}
	gv := GraphvizLayout{}
	if ForKind(mindmap.KindTree, eng, gv) != Strategy(eng) {
		t.Error("tree kind should use the engine")
	}
	if _, ok := ForKind(mindmap.KindLinked, eng, gv).(GraphvizLayout); !ok {
		t.Error("linked kind should use graphviz")
	}
}

func TestParsePositions(t *testing.T) {
	out := []byte(`digraph G {
	graph [bb="0,0,200,100", rankdir=LR];
	subgraph cluster_1 {
		graph [bb="8,8,120,92"];
		2	[height=0.208, pos="40,50", width=0.417];
	}
	3	[height=0.208,
		pos="160.5,25", width=0.417];
	2 -> 3	[pos="e,145,25 55,50"];
}`)
	got, err := parsePositions(out)
	if err != nil {
		t.Fatalf("parsePositions: %v", err)
	}
	want := map[mindmap.Key]mindmap.Point{
		1: {X: 64, Y: -50},
		2: {X: 40, Y: -50},
		3: {X: 160.5, Y: -25},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, p := range want {
		if got[k] != p {
			t.Errorf("key %d at %v, want %v", k, got[k], p)
		}
	}
}

func TestGraphvizDOTClusters(t *testing.T) {
	dot := GraphvizLayout{}.toDOT(mindmap.Snapshot{
		Kind: mindmap.KindLinked,
		Nodes: []mindmap.Node{
			{Key: 1, IsGroup: true},
			{Key: 2, Group: 1},
			{Key: 3},
		},
		Links: []mindmap.Link{{From: 2, To: 3}, {From: 1, To: 3}},
	})
	for _, want := range []string{"subgraph cluster_1 {", "2 [width=", "2 -> 3;"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "1 -> 3") {
		t.Error("links to groups should be skipped")
	}
}
