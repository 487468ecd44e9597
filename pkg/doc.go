// Package pkg provides the core libraries for mindgraph.
//
// # Overview
//
// mindgraph keeps a mind map as a tree whose root sits in the middle: every
// child of the root is placed on the left or the right, and its whole
// subtree grows away from the root on that side. The same model also holds
// general node-link diagrams (the "link-data" graph) with groups and
// explicit links.
//
// # Architecture
//
// The data flow for an edit:
//
//	server (store)  ←→  [client] (REST)
//	                        ↓
//	                   [editor] (single-lock command loop)
//	                        ↓
//	     [mindmap] (model, insertion, key allocation)
//	                        ↓
//	     [mindmap/layout] (left/right partition, tree layout)
//
// # Main Packages
//
// [mindmap] - The GraphModel: nodes, links, change notifications, the
// insertion protocol and monotonic key allocation.
//
// [mindmap/layout] - Splits a tree into its left and right halves and lays
// each out as an ordinary tree, mirroring the left half. Linked graphs are
// laid out with Graphviz.
//
// [client] - The sync client for the getSimpleGraph, saveSimpleGraph,
// getLinkDataGraph, saveLinkDataGraph and diagram endpoints.
//
// [editor] - Serializes local edits and backend round trips against one
// model and discards stale responses.
//
// [server] - The REST backend, including a websocket feed of saved graphs.
//
// [store] - Document storage: memory, files, Redis and MongoDB.
//
// [diagram] - Turns a plain-text description into a linked graph.
//
// [render/nodelink] and [render] - Graphviz diagrams and SVG to PDF/PNG
// conversion.
//
// [graph] - Wire envelopes and the stored document format.
//
// # Testing
//
//	go test ./...                       # All tests
//	go test ./pkg/mindmap/...           # Model, insertion and layout
//	go test -run Example ./pkg/...      # Examples only
//
// [mindmap]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/mindmap
// [mindmap/layout]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/mindmap/layout
// [client]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/client
// [editor]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/editor
// [server]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/server
// [store]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/store
// [diagram]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/diagram
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/render/nodelink
// [render]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/render
// [graph]: https://pkg.go.dev/github.com/matzehuels/mindgraph/pkg/graph
package pkg
