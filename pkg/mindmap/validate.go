package mindmap

// indexNodes maps keys to slice positions, rejecting zero and duplicate keys.
func indexNodes(nodes []Node) (map[Key]int, error) {
	index := make(map[Key]int, len(nodes))
	for i, n := range nodes {
		if n.Key == NoKey {
			return nil, invalidGraph(ErrInvalidKey, "node at position %d", i)
		}
		if _, dup := index[n.Key]; dup {
			return nil, invalidGraph(ErrDuplicateKey, "key %d", n.Key)
		}
		index[n.Key] = i
	}
	return index, nil
}

// checkStructure verifies referential integrity for the given kind and, for
// trees, that no branch mixes sides. Trees may be forests here; the
// single-root rule is checked by checkRoot.
func checkStructure(kind Kind, nodes []Node, index map[Key]int, links []Link) error {
	switch kind {
	case KindTree:
		if len(links) > 0 {
			return invalidGraph(nil, "tree graphs derive links from parent references; got %d explicit links", len(links))
		}
		if err := checkParents(nodes, index); err != nil {
			return err
		}
		return checkDirections(nodes, index)
	case KindLinked:
		return checkLinks(nodes, index, links)
	default:
		return invalidGraph(nil, "unknown graph kind %q", kind)
	}
}

func checkParents(nodes []Node, index map[Key]int) error {
	for _, n := range nodes {
		if n.IsRoot() {
			continue
		}
		if _, ok := index[n.Parent]; !ok {
			return invalidGraph(ErrUnknownNode, "node %d references missing parent %d", n.Key, n.Parent)
		}
	}

	// Walk up from every node. state: 0 unvisited, 1 on current path, 2 reaches a root.
	state := make(map[Key]uint8, len(nodes))
	for _, n := range nodes {
		var path []Key
		cur := n
	walk:
		for {
			switch state[cur.Key] {
			case 1:
				return invalidGraph(ErrCycle, "at node %d", cur.Key)
			case 2:
				break walk
			}
			state[cur.Key] = 1
			path = append(path, cur.Key)
			if cur.IsRoot() {
				break walk
			}
			cur = nodes[index[cur.Parent]]
		}
		for _, k := range path {
			state[k] = 2
		}
	}
	return nil
}

// checkDirections verifies that every node below a child of the root either
// has no direction or names the side of its branch. The parent graph must
// already be known to be acyclic.
func checkDirections(nodes []Node, index map[Key]int) error {
	sides := make(map[Key]Direction, len(nodes))
	var branch func(i int) Direction
	branch = func(i int) Direction {
		n := nodes[i]
		if d, ok := sides[n.Key]; ok {
			return d
		}
		d := n.Side()
		if p := index[n.Parent]; !nodes[p].IsRoot() {
			d = branch(p)
		}
		sides[n.Key] = d
		return d
	}

	for _, n := range nodes {
		if n.IsRoot() || n.Dir == "" {
			continue
		}
		p := index[n.Parent]
		if nodes[p].IsRoot() {
			continue
		}
		if want := branch(p); n.Dir != want {
			return invalidGraph(ErrMixedDirection, "node %d is %q in a %s branch", n.Key, n.Dir, want)
		}
	}
	return nil
}

// branchSide returns the side of the top-level branch that holds key. Roots
// and unknown keys have no branch.
func branchSide(nodes []Node, index map[Key]int, key Key) (Direction, bool) {
	i, ok := index[key]
	if !ok || nodes[i].IsRoot() {
		return "", false
	}
	n := nodes[i]
	for range len(nodes) {
		p, ok := index[n.Parent]
		if !ok {
			return "", false
		}
		if nodes[p].IsRoot() {
			return n.Side(), true
		}
		n = nodes[p]
	}
	return "", false
}

func checkLinks(nodes []Node, index map[Key]int, links []Link) error {
	for _, l := range links {
		if _, ok := index[l.From]; !ok {
			return invalidGraph(ErrUnknownNode, "link %s: missing source %d", l, l.From)
		}
		if _, ok := index[l.To]; !ok {
			return invalidGraph(ErrUnknownNode, "link %s: missing target %d", l, l.To)
		}
	}
	for _, n := range nodes {
		if n.Group == NoKey {
			continue
		}
		if n.Group == n.Key {
			return invalidGraph(nil, "node %d is its own group", n.Key)
		}
		i, ok := index[n.Group]
		if !ok {
			return invalidGraph(ErrUnknownNode, "node %d references missing group %d", n.Key, n.Group)
		}
		if !nodes[i].IsGroup {
			return invalidGraph(nil, "node %d references group %d which is not a group", n.Key, n.Group)
		}
	}
	return nil
}

func countRoots(nodes []Node) int {
	count := 0
	for _, n := range nodes {
		if n.IsRoot() {
			count++
		}
	}
	return count
}

// roots returns the keys of every parentless node, in model order.
// For linked graphs a root is a non-group node without incoming links.
func roots(kind Kind, nodes []Node, links []Link) []Key {
	var out []Key
	if kind == KindLinked {
		incoming := make(map[Key]bool, len(links))
		for _, l := range links {
			incoming[l.To] = true
		}
		for _, n := range nodes {
			if !n.IsGroup && !incoming[n.Key] {
				out = append(out, n.Key)
			}
		}
		return out
	}
	for _, n := range nodes {
		if n.IsRoot() {
			out = append(out, n.Key)
		}
	}
	return out
}

func checkRoot(kind Kind, nodes []Node, links []Link) (Key, error) {
	r := roots(kind, nodes, links)
	if len(r) != 1 {
		return NoKey, &NoRootError{Roots: r}
	}
	return r[0], nil
}
