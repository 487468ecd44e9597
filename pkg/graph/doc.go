// Package graph provides the serialization formats of mindgraph.
//
// This package sits at the boundary between the in-memory model
// (pkg/mindmap) and everything outside the process: the REST wire format,
// stored documents, and graph files on disk.
//
// # Wire format
//
// Every endpoint wraps its payload in a {"content": ...} [Envelope]. Tree
// graphs travel as a bare node array, general graphs as [LinkData]:
//
//	GET  /mindgraph/getSimpleGraph     {"content": {"content": [Node...]}}
//	POST /mindgraph/saveSimpleGraph    {"content": [Node...]}
//	GET  /mindgraph/getLinkDataGraph   {"content": {"content": {"nodeDataArray": [...], "linkDataArray": [...]}}}
//	POST /mindgraph/saveLinkDataGraph  {"content": {"nodeDataArray": [...], "linkDataArray": [...]}}
//
// The Decode* helpers return errors wrapping [ErrShape] when a required
// field is missing, so callers can tell a malformed response from a broken
// connection.
//
// # Documents
//
// A [Document] is a named snapshot with a revision counter, as kept by
// pkg/store. Documents can be written to and read from JSON or YAML files:
//
//	doc := graph.NewDocument("roadmap", model.Snapshot())
//	err := graph.WriteDocumentFile(doc, "roadmap.yaml")
package graph
