// Package nodelink renders mind maps and linked graphs as node-link
// diagrams.
//
// # Usage
//
// Convert a snapshot to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Use [render.Convert] for PDF or PNG.
//
// # DOT Format
//
// The generated DOT lays out left to right by default (rankdir=LR) with
// rounded, filled boxes. Node fill follows the node's brush, links take
// the colour of their target, and group nodes of a linked graph become
// clusters. The DOT source can also be saved and processed with the
// external Graphviz tools.
//
// [render.Convert]: github.com/matzehuels/mindgraph/pkg/render.Convert
package nodelink
