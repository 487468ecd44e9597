package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// Options configures node-link diagram rendering.
type Options struct {
	// RankDir is the Graphviz rank direction. Empty selects "LR", which
	// matches the left/right growth of a mind map.
	RankDir string

	// Detailed adds the reference and description to node labels.
	Detailed bool
}

// ToDOT converts a snapshot to Graphviz DOT.
//
// Tree roots are drawn bold. Nodes are filled with their brush (or colour
// for linked graphs) and a link takes the colour of the node it points to.
// Group nodes become clusters around their members.
func ToDOT(s mindmap.Snapshot, opts Options) string {
	rankdir := opts.RankDir
	if rankdir == "" {
		rankdir = "LR"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", rankdir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	members := map[mindmap.Key][]mindmap.Node{}
	fill := map[mindmap.Key]string{}
	for _, n := range s.Nodes {
		members[n.Group] = append(members[n.Group], n)
		fill[n.Key] = fillColor(n)
	}
	writeNodes(&buf, s.Kind, members, mindmap.NoKey, opts, "  ", map[mindmap.Key]bool{})

	buf.WriteString("\n")
	for _, l := range graphLinks(s) {
		attrs := []string{}
		if c := fill[l.To]; c != "" {
			attrs = append(attrs, fmt.Sprintf("color=%q", c))
		}
		if l.Text != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", l.Text))
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %s -> %s;\n", nodeID(l.From), nodeID(l.To))
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s [%s];\n", nodeID(l.From), nodeID(l.To), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNodes(buf *bytes.Buffer, kind mindmap.Kind, members map[mindmap.Key][]mindmap.Node, group mindmap.Key, opts Options, indent string, seen map[mindmap.Key]bool) {
	for _, n := range members[group] {
		if seen[n.Key] {
			continue
		}
		seen[n.Key] = true
		if n.IsGroup {
			fmt.Fprintf(buf, "%ssubgraph cluster_%d {\n", indent, n.Key)
			fmt.Fprintf(buf, "%s  label=%q;\n", indent, n.Label())
			fmt.Fprintf(buf, "%s  style=\"rounded,filled\";\n", indent)
			fmt.Fprintf(buf, "%s  fillcolor=%q;\n", indent, orDefault(n.Color, "whitesmoke"))
			writeNodes(buf, kind, members, n.Key, opts, indent+"  ", seen)
			fmt.Fprintf(buf, "%s}\n", indent)
			continue
		}
		attrs := []string{fmt.Sprintf("label=%q", label(n, opts.Detailed))}
		if c := fillColor(n); c != "" {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
		}
		if kind == mindmap.KindTree && n.IsRoot() {
			attrs = append(attrs, "penwidth=2", "fontname=\"Helvetica-Bold\"")
		}
		fmt.Fprintf(buf, "%s%s [%s];\n", indent, nodeID(n.Key), strings.Join(attrs, ", "))
	}
}

// graphLinks returns explicit links, or the parent links of a tree. Links
// touching a group are dropped since groups are drawn as clusters.
func graphLinks(s mindmap.Snapshot) []mindmap.Link {
	if s.Kind == mindmap.KindTree {
		var out []mindmap.Link
		for _, n := range s.Nodes {
			if !n.IsRoot() {
				out = append(out, mindmap.Link{From: n.Parent, To: n.Key})
			}
		}
		return out
	}
	groups := map[mindmap.Key]bool{}
	for _, n := range s.Nodes {
		if n.IsGroup {
			groups[n.Key] = true
		}
	}
	var out []mindmap.Link
	for _, l := range s.Links {
		if !groups[l.From] && !groups[l.To] {
			out = append(out, l)
		}
	}
	return out
}

func label(n mindmap.Node, detailed bool) string {
	text := n.Label()
	if !detailed {
		return text
	}
	var parts []string
	if n.Reference != "" && !strings.HasPrefix(text, n.Reference) {
		parts = append(parts, "ref: "+n.Reference)
	}
	if n.Description != "" {
		parts = append(parts, n.Description)
	}
	if len(parts) == 0 {
		return text
	}
	return text + "\n" + strings.Join(parts, "\n")
}

func fillColor(n mindmap.Node) string {
	if n.Brush != "" {
		return n.Brush
	}
	return n.Color
}

func nodeID(k mindmap.Key) string { return "n" + strconv.Itoa(int(k)) }

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element to a zero-origin viewBox with
// matching width and height so the SVG scales cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
