package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mindgraph/pkg/diagram"
	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/render/nodelink"
	"github.com/matzehuels/mindgraph/pkg/store"
)

// SeedRoot is the single node of a simple graph that has never been saved.
var SeedRoot = mindmap.Node{Key: 1, Text: "Root", Dir: mindmap.Right, Loc: "0 0"}

// =============================================================================
// Simple graph
// =============================================================================

func (s *Server) getSimpleGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.load(r, graph.SimpleGraphName)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.Wrap(graph.Wrap(nonNil(doc.Nodes))))
}

func (s *Server) saveSimpleGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := graph.DecodeSimpleRequest(s.body(w, r))
	if err != nil {
		writeError(w, r, s.logger, badBody(err))
		return
	}
	m, err := mindmap.FromSnapshot(snap)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if err := m.Validate(); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	doc, err := s.save(r, graph.SimpleGraphName, m.Snapshot())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.Wrap(graph.Wrap(nonNil(doc.Nodes))))
}

// =============================================================================
// Link-data graph
// =============================================================================

func (s *Server) getLinkDataGraph(w http.ResponseWriter, r *http.Request) {
	doc, err := s.load(r, graph.LinkDataGraphName)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.Wrap(graph.Wrap(graph.ToLinkData(doc.Snapshot()))))
}

func (s *Server) saveLinkDataGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := graph.DecodeLinkDataRequest(s.body(w, r))
	if err != nil {
		writeError(w, r, s.logger, badBody(err))
		return
	}
	m, err := mindmap.FromSnapshot(snap)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	doc, err := s.save(r, graph.LinkDataGraphName, m.Snapshot())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, graph.Wrap(graph.Wrap(graph.ToLinkData(doc.Snapshot()))))
}

// =============================================================================
// Diagram generation, listing and export
// =============================================================================

func (s *Server) generateDiagram(w http.ResponseWriter, r *http.Request) {
	var req graph.DiagramRequest
	if err := json.NewDecoder(s.body(w, r)).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = mgerrors.Invalid("description", "request body is empty")
		}
		writeError(w, r, s.logger, badBody(err))
		return
	}
	snap, err := diagram.Generate(req.Description)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	s.logger.Debug("generated diagram", "nodes", len(snap.Nodes), "links", len(snap.Links))
	writeJSON(w, http.StatusOK, graph.ToLinkData(snap))
}

func (s *Server) listGraphs(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, graph.Wrap(names))
}

func (s *Server) renderSVG(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := mgerrors.ValidateGraphName(name); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	doc, err := s.load(r, name)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	opts := nodelink.Options{RankDir: r.URL.Query().Get("rankdir"), Detailed: r.URL.Query().Has("detailed")}
	svg, err := nodelink.RenderSVG(r.Context(), nodelink.ToDOT(doc.Snapshot(), opts))
	if err != nil {
		writeError(w, r, s.logger, mgerrors.Wrap(mgerrors.ErrCodeInternal, err, "render %s", name))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// =============================================================================
// Store access
// =============================================================================

// load returns the stored document, or the seed for the two well-known
// graphs if they have never been saved.
func (s *Server) load(r *http.Request, name string) (*graph.Document, error) {
	doc, err := s.store.Get(r.Context(), name)
	if err == nil {
		return doc, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}
	switch name {
	case graph.SimpleGraphName:
		return graph.NewDocument(name, graph.SimpleSnapshot([]mindmap.Node{SeedRoot})), nil
	case graph.LinkDataGraphName:
		return graph.NewDocument(name, graph.LinkedSnapshot(graph.LinkData{})), nil
	default:
		return nil, err
	}
}

func (s *Server) save(r *http.Request, name string, snap mindmap.Snapshot) (*graph.Document, error) {
	doc := graph.NewDocument(name, snap)
	if err := s.store.Put(r.Context(), doc); err != nil {
		return nil, err
	}
	s.logger.Info("saved graph", "name", name, "nodes", len(doc.Nodes), "revision", doc.Revision)
	s.live.broadcast(doc)
	return doc, nil
}

func (s *Server) body(w http.ResponseWriter, r *http.Request) io.Reader {
	return http.MaxBytesReader(w, r.Body, s.maxBody)
}

func nonNil(nodes []mindmap.Node) []mindmap.Node {
	if nodes == nil {
		return []mindmap.Node{}
	}
	return nodes
}
