// Package server implements the mindgraph backend.
//
// # Endpoints
//
//	GET  /mindgraph/getSimpleGraph      {"content":{"content":[Node...]}}
//	POST /mindgraph/saveSimpleGraph     body {"content":[Node...]}
//	GET  /mindgraph/getLinkDataGraph    {"content":{"content":{nodeDataArray, linkDataArray}}}
//	POST /mindgraph/saveLinkDataGraph   body {"content":{nodeDataArray, linkDataArray}}
//	POST /api/diagram                   body {"description": "..."}
//	GET  /mindgraph/graphs              {"content":[name...]}
//	GET  /mindgraph/render/{name}.svg   node-link SVG of a stored graph
//	GET  /mindgraph/live                websocket feed of saved documents
//
// Saves replace the stored graph and answer with what was stored. Simple
// graphs must be trees with exactly one root. A simple graph that was never
// saved is served as a single root node; a link-data graph as empty arrays.
//
// # Errors
//
// Failures are answered with {"error":{"code","message"}}. Validation and
// structural errors are 400, unknown graphs 404 and unexpected failures 500
// with the detail logged rather than returned.
package server
