// Package render exports graphs as images.
//
// The [nodelink] subpackage draws a snapshot as a Graphviz node-link
// diagram and returns SVG. [Convert] turns that SVG into PDF or PNG using
// the external rsvg-convert tool:
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(snap, nodelink.Options{}))
//	png, err := render.Convert(ctx, svg, render.FormatPNG, 2)
//
// SVG needs nothing beyond the Go module. PDF and PNG fail with an
// UNSUPPORTED error when librsvg is not installed.
package render
