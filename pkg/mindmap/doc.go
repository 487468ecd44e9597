// Package mindmap is the editing core of mindgraph: the graph model, its
// invariants and the node-insertion protocol.
//
// # Model
//
// A [Model] holds the nodes and links of one diagram. Two kinds share the
// same type:
//
//   - [KindTree]: a mind-map. Links are implicit; every non-root node names
//     its parent and exactly one node (the root) has none.
//   - [KindLinked]: a general node-link graph. Links are stored explicitly and
//     nodes may be grouped.
//
// All mutation goes through [Model.Update], which stages changes in a [Tx]
// and commits them all-or-nothing. Observers registered with [Model.Observe]
// are notified once per committed transaction, after every staged change is
// visible, so nobody ever sees a node without its link.
//
// # Insertion
//
// [Insert] adds a child under an existing node:
//
//	alloc := mindmap.NewKeyAllocator()
//	alloc.ObserveSnapshot(snap)
//	ins, err := mindmap.Insert(m, alloc, mindmap.InsertNodeCommand{
//	    ParentKey: 1,
//	    Fields:    mindmap.NodeFields{Title: "Idea A", Dir: mindmap.Left},
//	}, mindmap.InsertOptions{})
//
// The child's growth direction is chosen by [ResolveDirection]: children of
// the root pick a side, everything deeper inherits its parent's side.
//
// [ApplyInsert] is the same rule set expressed as a pure function over
// snapshots.
//
// # Concurrency
//
// A Model is not safe for concurrent use. It is meant to be owned by a single
// event loop (see pkg/editor) that runs each handler to completion.
package mindmap
