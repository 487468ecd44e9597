// Package layout positions the nodes of a mind-map.
//
// # Bidirectional trees
//
// A mind-map grows two fans out of a central root. [Partition] splits a tree
// model into the rightward and leftward parts: each direct child of the root
// takes its whole subtree to the side named by its dir field. The root
// anchors both parts.
//
// [Engine] runs a [Layouter] over each part, rightward at 0° and leftward at
// 180° (the mirror image), and commits every location in one model update:
//
//	eng := layout.NewEngine(layout.TreeLayout{})
//	if err := eng.Layout(ctx, model); err != nil {
//	    return err
//	}
//
// After an insertion only the affected half needs a new layout:
//
//	err := eng.LayoutSide(ctx, model, ins.Side)
//
// Box sizes come from a [Sizer]. [TextSizer] estimates from the rune count;
// [FontSizer] measures with real font metrics.
//
// # General graphs
//
// Linked graphs have no sides. [GraphvizLayout] lays them out as a whole with
// Graphviz and places groups at the centre of their clusters. [ForKind]
// picks the strategy for a model kind.
package layout
