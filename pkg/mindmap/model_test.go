package mindmap

import (
	"errors"
	"testing"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
)

func treeSnapshot() Snapshot {
	return Snapshot{Kind: KindTree, Nodes: []Node{
		{Key: 1, Text: "Root", Dir: Right, Loc: "0 0"},
		{Key: 2, Text: "a", Parent: 1, Dir: Right},
		{Key: 3, Text: "b", Parent: 1, Dir: Left},
		{Key: 4, Text: "c", Parent: 2, Dir: Right},
	}}
}

func mustModel(t *testing.T, s Snapshot) *Model {
	t.Helper()
	m, err := FromSnapshot(s)
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	return m
}

func TestFromSnapshotRejectsBrokenGraphs(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want error
	}{
		{
			name: "zero key",
			snap: Snapshot{Kind: KindTree, Nodes: []Node{{Key: 0}}},
			want: ErrInvalidKey,
		},
		{
			name: "duplicate key",
			snap: Snapshot{Kind: KindTree, Nodes: []Node{{Key: 1}, {Key: 1}}},
			want: ErrDuplicateKey,
		},
		{
			name: "missing parent",
			snap: Snapshot{Kind: KindTree, Nodes: []Node{{Key: 1}, {Key: 2, Parent: 9}}},
			want: ErrUnknownNode,
		},
		{
			name: "cycle",
			snap: Snapshot{Kind: KindTree, Nodes: []Node{{Key: 1}, {Key: 2, Parent: 3}, {Key: 3, Parent: 2}}},
			want: ErrCycle,
		},
		{
			name: "mixed branch",
			snap: Snapshot{Kind: KindTree, Nodes: []Node{
				{Key: 1},
				{Key: 2, Parent: 1, Dir: Left},
				{Key: 3, Parent: 2, Dir: Left},
				{Key: 4, Parent: 3, Dir: Right},
			}},
			want: ErrMixedDirection,
		},
		{
			name: "undirected branch with left grandchild",
			snap: Snapshot{Kind: KindTree, Nodes: []Node{{Key: 1}, {Key: 2, Parent: 1}, {Key: 3, Parent: 2, Dir: Left}}},
			want: ErrMixedDirection,
		},
		{
			name: "dangling link",
			snap: Snapshot{Kind: KindLinked, Nodes: []Node{{Key: 1}}, Links: []Link{{From: 1, To: 2}}},
			want: ErrUnknownNode,
		},
		{
			name: "missing group",
			snap: Snapshot{Kind: KindLinked, Nodes: []Node{{Key: 1, Group: 5}}},
			want: ErrUnknownNode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromSnapshot(tt.snap)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !mgerrors.Is(err, mgerrors.ErrCodeInvalidGraph) {
				t.Errorf("code = %q, want %q", mgerrors.GetCode(err), mgerrors.ErrCodeInvalidGraph)
			}
		})
	}
}

func TestTreeLinksAreDerived(t *testing.T) {
	m := mustModel(t, treeSnapshot())
	got := m.Links()
	want := []Link{{From: 1, To: 2}, {From: 1, To: 3}, {From: 2, To: 4}}
	if len(got) != len(want) {
		t.Fatalf("Links() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Links()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if kids := m.Children(1); len(kids) != 2 || kids[0] != 2 || kids[1] != 3 {
		t.Errorf("Children(1) = %v", kids)
	}
	if sub := m.Subtree(2); len(sub) != 2 || sub[0] != 2 || sub[1] != 4 {
		t.Errorf("Subtree(2) = %v", sub)
	}
}

func TestRoot(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		want  Key
		roots int
	}{
		{name: "single", nodes: []Node{{Key: 1}, {Key: 2, Parent: 1}}, want: 1},
		{name: "empty", nodes: nil, roots: 0},
		{name: "forest", nodes: []Node{{Key: 1}, {Key: 2}}, roots: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustModel(t, Snapshot{Kind: KindTree, Nodes: tt.nodes})
			root, err := m.Root()
			if tt.want != NoKey {
				if err != nil {
					t.Fatalf("Root: %v", err)
				}
				if root.Key != tt.want {
					t.Errorf("Root().Key = %d, want %d", root.Key, tt.want)
				}
				return
			}
			var nre *NoRootError
			if !errors.As(err, &nre) {
				t.Fatalf("err = %v, want *NoRootError", err)
			}
			if len(nre.Roots) != tt.roots {
				t.Errorf("Roots = %v, want %d entries", nre.Roots, tt.roots)
			}
			if !mgerrors.Is(err, mgerrors.ErrCodeNoRoot) {
				t.Errorf("code = %q", mgerrors.GetCode(err))
			}
		})
	}
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	m := mustModel(t, treeSnapshot())
	before := m.Snapshot()
	notified := 0
	m.Observe(func(Change) { notified++ })

	boom := errors.New("boom")
	err := m.Update(func(tx *Tx) error {
		if err := tx.AddNode(Node{Key: 10, Parent: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !m.Snapshot().Equal(before) {
		t.Error("model changed after failed update")
	}
	if notified != 0 {
		t.Errorf("observers notified %d times, want 0", notified)
	}
	if m.Revision() != 0 {
		t.Errorf("Revision = %d, want 0", m.Revision())
	}
}

func TestUpdateRequiresTreeLink(t *testing.T) {
	m := mustModel(t, treeSnapshot())
	err := m.Update(func(tx *Tx) error {
		return tx.AddNode(Node{Key: 10, Parent: 1})
	})
	if !errors.Is(err, ErrMissingLink) {
		t.Fatalf("err = %v, want ErrMissingLink", err)
	}
	if _, ok := m.Node(10); ok {
		t.Error("node committed without its link")
	}

	err = m.Update(func(tx *Tx) error {
		if err := tx.AddNode(Node{Key: 10, Parent: 1}); err != nil {
			return err
		}
		return tx.AddLink(Link{From: 2, To: 10})
	})
	if !errors.Is(err, ErrLinkMismatch) {
		t.Fatalf("err = %v, want ErrLinkMismatch", err)
	}
}

func TestObserverSeesNodeAndLinkTogether(t *testing.T) {
	m := mustModel(t, treeSnapshot())
	var changes []Change
	m.Observe(func(c Change) {
		changes = append(changes, c)
		if _, ok := m.Node(10); !ok {
			t.Error("observer ran before node was visible")
		}
		found := false
		for _, l := range m.Links() {
			if l == (Link{From: 1, To: 10}) {
				found = true
			}
		}
		if !found {
			t.Error("observer ran before link was visible")
		}
	})

	err := m.Update(func(tx *Tx) error {
		if err := tx.AddNode(Node{Key: 10, Parent: 1}); err != nil {
			return err
		}
		return tx.AddLink(Link{From: 1, To: 10})
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d notifications, want 1", len(changes))
	}
	c := changes[0]
	if len(c.Added) != 1 || len(c.Links) != 1 || c.Revision != 1 {
		t.Errorf("change = %+v", c)
	}
}

func TestReentrantUpdateIsDeferred(t *testing.T) {
	m := mustModel(t, treeSnapshot())
	var order []string
	var inner error
	m.Observe(func(c Change) {
		if len(c.Moved) > 0 && c.Moved[0] == 4 {
			order = append(order, "second")
			return
		}
		order = append(order, "first")
		inner = m.SetLocations(map[Key]Point{4: {X: 5, Y: 5}})
		if n, _ := m.Node(4); n.Loc != "" {
			t.Error("deferred update ran during notification")
		}
	})

	if err := m.SetLocations(map[Key]Point{2: {X: 1}}); err != nil {
		t.Fatalf("SetLocations: %v", err)
	}
	if !errors.Is(inner, ErrDeferred) {
		t.Errorf("inner err = %v, want ErrDeferred", inner)
	}
	if n, _ := m.Node(4); n.Loc != "5 5" {
		t.Errorf("node 4 loc = %q, want %q", n.Loc, "5 5")
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("notification order = %v", order)
	}
}

func TestObserveCancel(t *testing.T) {
	m := mustModel(t, treeSnapshot())
	n := 0
	cancel := m.Observe(func(Change) { n++ })
	_ = m.SetLocations(map[Key]Point{2: {X: 1}})
	cancel()
	_ = m.SetLocations(map[Key]Point{2: {X: 2}})
	if n != 1 {
		t.Errorf("observer called %d times, want 1", n)
	}
}

func TestSetNode(t *testing.T) {
	m := mustModel(t, treeSnapshot())
	var got Change
	m.Observe(func(c Change) { got = c })

	n, _ := m.Node(2)
	n.Text = "renamed"
	n.Loc = "3 4"
	if err := m.Update(func(tx *Tx) error { return tx.SetNode(n) }); err != nil {
		t.Fatalf("SetNode: %v", err)
	}
	if len(got.Updated) != 1 || len(got.Moved) != 1 {
		t.Errorf("change = %+v", got)
	}

	n.Parent = 3
	err := m.Update(func(tx *Tx) error { return tx.SetNode(n) })
	if !mgerrors.Is(err, mgerrors.ErrCodeInvalidGraph) {
		t.Errorf("reparenting err = %v", err)
	}
}

func TestSetNodeKeepsBranchSide(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		dir     Direction
		wantErr bool
	}{
		{"flip below root child", 4, Left, true},
		{"restate branch side", 4, Right, false},
		{"clear direction", 4, "", false},
		{"root child may flip", 2, Left, false},
		{"root may change", 1, Left, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mustModel(t, treeSnapshot())
			before := m.Snapshot()
			n, _ := m.Node(tt.key)
			n.Dir = tt.dir
			err := m.Update(func(tx *Tx) error { return tx.SetNode(n) })
			if tt.wantErr {
				if !errors.Is(err, ErrMixedDirection) {
					t.Fatalf("err = %v, want ErrMixedDirection", err)
				}
				if !m.Snapshot().Equal(before) {
					t.Error("model changed on rejected edit")
				}
				return
			}
			if err != nil {
				t.Fatalf("SetNode: %v", err)
			}
			if err := m.Validate(); err != nil {
				t.Errorf("Validate after edit: %v", err)
			}
		})
	}
}

func TestSetNodeMovesBranchWithRootChild(t *testing.T) {
	m := mustModel(t, Snapshot{Kind: KindTree, Nodes: []Node{
		{Key: 1, Loc: "0 0"},
		{Key: 2, Parent: 1, Dir: Right},
		{Key: 3, Parent: 2, Dir: Right},
		{Key: 4, Parent: 3, Dir: Right},
		{Key: 5, Parent: 3},
		{Key: 6, Parent: 1, Dir: Right},
	}})
	var got Change
	m.Observe(func(c Change) { got = c })

	n, _ := m.Node(2)
	n.Dir = Left
	if err := m.Update(func(tx *Tx) error { return tx.SetNode(n) }); err != nil {
		t.Fatalf("SetNode: %v", err)
	}

	want := map[Key]Direction{2: Left, 3: Left, 4: Left, 5: "", 6: Right}
	for k, d := range want {
		if n, _ := m.Node(k); n.Dir != d {
			t.Errorf("node %d dir = %q, want %q", k, n.Dir, d)
		}
	}
	if len(got.Updated) != 3 {
		t.Errorf("updated = %v, want the branch's three directed nodes", got.Updated)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestUpdateRejectsSecondRoot(t *testing.T) {
	m := mustModel(t, treeSnapshot())
	before := m.Snapshot()
	err := m.Update(func(tx *Tx) error { return tx.AddNode(Node{Key: 99, Text: "stray"}) })
	var nre *NoRootError
	if !errors.As(err, &nre) || len(nre.Roots) != 2 {
		t.Fatalf("err = %v, want NoRootError with two roots", err)
	}
	if !m.Snapshot().Equal(before) {
		t.Error("model changed")
	}

	err = New(KindTree).Update(func(tx *Tx) error {
		if err := tx.AddNode(Node{Key: 1}); err != nil {
			return err
		}
		return tx.AddNode(Node{Key: 2})
	})
	if !errors.As(err, &nre) {
		t.Errorf("two roots at once: err = %v, want NoRootError", err)
	}

	first := New(KindTree)
	if err := first.Update(func(tx *Tx) error { return tx.AddNode(Node{Key: 1}) }); err != nil {
		t.Errorf("first root: %v", err)
	}
}

func TestReplace(t *testing.T) {
	m := New(KindTree)
	var got Change
	m.Observe(func(c Change) { got = c })

	if err := m.Replace(treeSnapshot()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if !got.Replaced || m.Len() != 4 {
		t.Errorf("Replaced=%v Len=%d", got.Replaced, m.Len())
	}

	bad := Snapshot{Kind: KindTree, Nodes: []Node{{Key: 1, Parent: 1}}}
	if err := m.Replace(bad); err == nil {
		t.Fatal("expected error for self-parented node")
	}
	if m.Len() != 4 {
		t.Error("failed Replace modified the model")
	}
}

func TestLinkedGroups(t *testing.T) {
	s := Snapshot{Kind: KindLinked, Nodes: []Node{
		{Key: 1, IsGroup: true, Text: "G"},
		{Key: 2, Group: 1},
		{Key: 3, Group: 1},
	}, Links: []Link{{From: 2, To: 3}}}
	m := mustModel(t, s)
	root, err := m.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Key != 2 {
		t.Errorf("root = %d, want 2", root.Key)
	}

	s.Nodes[0].IsGroup = false
	if _, err := FromSnapshot(s); err == nil {
		t.Error("expected error when group target is not a group")
	}
}
