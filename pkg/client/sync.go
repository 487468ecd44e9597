package client

import (
	"context"
	"io"
	"net/http"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// Endpoint paths served by the backend.
const (
	PathGetSimple    = "/mindgraph/getSimpleGraph"
	PathSaveSimple   = "/mindgraph/saveSimpleGraph"
	PathGetLinkData  = "/mindgraph/getLinkDataGraph"
	PathSaveLinkData = "/mindgraph/saveLinkDataGraph"
	PathDiagram      = "/api/diagram"
)

// =============================================================================
// Simple (tree) graphs
// =============================================================================

// LoadSimple fetches the stored mind map.
func (c *Client) LoadSimple(ctx context.Context) (mindmap.Snapshot, error) {
	return c.load(ctx, "getSimpleGraph", PathGetSimple, graph.DecodeSimpleResponse)
}

// SaveSimple sends s as a full replacement and returns the snapshot the
// backend persisted. s must be a tree snapshot.
func (c *Client) SaveSimple(ctx context.Context, s mindmap.Snapshot) (mindmap.Snapshot, error) {
	if s.Kind != mindmap.KindTree {
		return mindmap.Snapshot{}, &SaveError{Op: "saveSimpleGraph", Err: mgerrors.New(mgerrors.ErrCodeInvalidGraph, "simple graphs must be trees, got %s", s.Kind)}
	}
	nodes := s.Nodes
	if nodes == nil {
		nodes = []mindmap.Node{}
	}
	return c.save(ctx, "saveSimpleGraph", PathSaveSimple, graph.Wrap(nodes), graph.DecodeSimpleResponse)
}

// =============================================================================
// Link-data graphs
// =============================================================================

// LoadLinkData fetches the stored general graph.
func (c *Client) LoadLinkData(ctx context.Context) (mindmap.Snapshot, error) {
	return c.load(ctx, "getLinkDataGraph", PathGetLinkData, graph.DecodeLinkDataResponse)
}

// SaveLinkData sends s as a full replacement and returns the snapshot the
// backend persisted. Tree snapshots are sent with their links spelled out.
func (c *Client) SaveLinkData(ctx context.Context, s mindmap.Snapshot) (mindmap.Snapshot, error) {
	return c.save(ctx, "saveLinkDataGraph", PathSaveLinkData, graph.Wrap(graph.ToLinkData(s)), graph.DecodeLinkDataResponse)
}

// =============================================================================
// Diagram generation
// =============================================================================

// GenerateDiagram asks the backend to turn a free-form description into a
// graph. Descriptions that are too short fail locally with a validation
// error and no request is sent.
func (c *Client) GenerateDiagram(ctx context.Context, description string) (mindmap.Snapshot, error) {
	if err := mgerrors.ValidatePrompt(description); err != nil {
		return mindmap.Snapshot{}, err
	}
	var out mindmap.Snapshot
	err := c.do(ctx, http.MethodPost, PathDiagram, graph.DiagramRequest{Description: description}, func(r io.Reader) error {
		var err error
		out, err = graph.DecodeDiagramResponse(r)
		return err
	})
	if err != nil {
		return mindmap.Snapshot{}, &LoadError{Op: "diagram", Err: err}
	}
	return out, nil
}

func (c *Client) load(ctx context.Context, op, path string, dec func(io.Reader) (mindmap.Snapshot, error)) (mindmap.Snapshot, error) {
	var out mindmap.Snapshot
	err := c.do(ctx, http.MethodGet, path, nil, func(r io.Reader) error {
		var err error
		out, err = dec(r)
		return err
	})
	if err != nil {
		return mindmap.Snapshot{}, &LoadError{Op: op, Err: err}
	}
	return out, nil
}

func (c *Client) save(ctx context.Context, op, path string, body any, dec func(io.Reader) (mindmap.Snapshot, error)) (mindmap.Snapshot, error) {
	var out mindmap.Snapshot
	err := c.do(ctx, http.MethodPost, path, body, func(r io.Reader) error {
		var err error
		out, err = dec(r)
		return err
	})
	if err != nil {
		return mindmap.Snapshot{}, &SaveError{Op: op, Err: err}
	}
	return out, nil
}
