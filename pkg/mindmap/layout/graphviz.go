package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// GraphvizLayout lays out general node-link graphs with Graphviz. Groups
// become clusters; a group node is placed at the centre of its cluster.
type GraphvizLayout struct {
	Sizer   Sizer  // nil selects TextSizer
	RankDir string // Graphviz rankdir; empty selects "LR"
}

// Layout implements [Strategy].
func (g GraphvizLayout) Layout(ctx context.Context, m *mindmap.Model) error {
	if m.Len() == 0 {
		return nil
	}
	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, "graphviz", m.Len())
	start := time.Now()

	locs, err := g.positions(ctx, m.Snapshot())
	hooks.OnLayoutComplete(ctx, "graphviz", time.Since(start), err)
	if err != nil {
		return err
	}
	return m.SetLocations(locs)
}

// LayoutSide implements [Strategy]. Linked graphs have no sides, so the
// whole graph is laid out.
func (g GraphvizLayout) LayoutSide(ctx context.Context, m *mindmap.Model, _ mindmap.Direction) error {
	return g.Layout(ctx, m)
}

func (g GraphvizLayout) positions(ctx context.Context, s mindmap.Snapshot) (map[mindmap.Key]mindmap.Point, error) {
	dot := g.toDOT(s)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return parsePositions(buf.Bytes())
}

// toDOT writes a label-free DOT graph sized from the sizer. Labels are left
// out so the attribute lists of the laid-out output stay easy to scan.
func (g GraphvizLayout) toDOT(s mindmap.Snapshot) string {
	sizer := g.Sizer
	if sizer == nil {
		sizer = TextSizer
	}
	rankdir := g.RankDir
	if rankdir == "" {
		rankdir = "LR"
	}

	members := map[mindmap.Key][]mindmap.Node{}
	groups := map[mindmap.Key]bool{}
	for _, n := range s.Nodes {
		members[n.Group] = append(members[n.Group], n)
		groups[n.Key] = n.IsGroup
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  node [shape=box, fixedsize=true, label=\"\"];\n")

	seen := map[mindmap.Key]bool{}
	var write func(group mindmap.Key, indent string)
	write = func(group mindmap.Key, indent string) {
		for _, n := range members[group] {
			if seen[n.Key] {
				continue
			}
			seen[n.Key] = true
			if n.IsGroup {
				fmt.Fprintf(&buf, "%ssubgraph cluster_%d {\n", indent, n.Key)
				write(n.Key, indent+"  ")
				fmt.Fprintf(&buf, "%s}\n", indent)
				continue
			}
			sz := sizer(n)
			fmt.Fprintf(&buf, "%s%d [width=%.3f, height=%.3f];\n", indent, n.Key, sz.W/72, sz.H/72)
		}
	}
	write(mindmap.NoKey, "  ")

	for _, l := range s.Links {
		if groups[l.From] || groups[l.To] {
			continue
		}
		fmt.Fprintf(&buf, "  %d -> %d;\n", l.From, l.To)
	}
	buf.WriteString("}\n")
	return buf.String()
}

var (
	nodePosRe   = regexp.MustCompile(`(?m)^\s*"?(\d+)"?\s*\[[^\]]*?\bpos="(-?[0-9.]+),(-?[0-9.]+)"`)
	clusterBBRe = regexp.MustCompile(`subgraph "?cluster_(\d+)"?\s*\{\s*graph\s*\[[^\]]*?\bbb="(-?[0-9.]+),(-?[0-9.]+),(-?[0-9.]+),(-?[0-9.]+)"`)
)

// parsePositions reads node and cluster positions from laid-out DOT output.
// Graphviz y grows upwards, so y is negated.
func parsePositions(out []byte) (map[mindmap.Key]mindmap.Point, error) {
	locs := map[mindmap.Key]mindmap.Point{}
	for _, m := range nodePosRe.FindAllSubmatch(out, -1) {
		k, _ := strconv.Atoi(string(m[1]))
		x, _ := strconv.ParseFloat(string(m[2]), 64)
		y, _ := strconv.ParseFloat(string(m[3]), 64)
		locs[mindmap.Key(k)] = mindmap.Point{X: x, Y: -y}
	}
	for _, m := range clusterBBRe.FindAllSubmatch(out, -1) {
		k, _ := strconv.Atoi(string(m[1]))
		var bb [4]float64
		for i := range bb {
			bb[i], _ = strconv.ParseFloat(string(m[i+2]), 64)
		}
		locs[mindmap.Key(k)] = mindmap.Point{X: (bb[0] + bb[2]) / 2, Y: -(bb[1] + bb[3]) / 2}
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("layout: no positions in graphviz output")
	}
	return locs, nil
}
