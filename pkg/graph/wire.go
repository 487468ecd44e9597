package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// ErrShape is returned when a payload is valid JSON but lacks a field the
// wire format requires.
var ErrShape = errors.New("unexpected payload shape")

// =============================================================================
// Envelopes
// =============================================================================

// Envelope is the {"content": ...} wrapper used by every endpoint.
// A nil Content means the field was missing or null.
type Envelope[T any] struct {
	Content *T `json:"content"`
}

// Wrap returns an envelope around v.
func Wrap[T any](v T) Envelope[T] {
	return Envelope[T]{Content: &v}
}

// Unwrap returns the content or an ErrShape error naming path.
func (e Envelope[T]) Unwrap(path string) (T, error) {
	if e.Content == nil {
		var zero T
		return zero, fmt.Errorf("%w: missing %s", ErrShape, path)
	}
	return *e.Content, nil
}

// LinkData is the node/link model of a general graph.
type LinkData struct {
	NodeDataArray []mindmap.Node `json:"nodeDataArray" bson:"node_data_array" yaml:"nodeDataArray"`
	LinkDataArray []mindmap.Link `json:"linkDataArray" bson:"link_data_array" yaml:"linkDataArray"`
}

// UnmarshalJSON requires nodeDataArray. A missing linkDataArray is read as
// no links.
func (d *LinkData) UnmarshalJSON(data []byte) error {
	var aux struct {
		NodeDataArray *[]mindmap.Node `json:"nodeDataArray"`
		LinkDataArray []mindmap.Link  `json:"linkDataArray"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.NodeDataArray == nil {
		return fmt.Errorf("%w: missing nodeDataArray", ErrShape)
	}
	d.NodeDataArray = *aux.NodeDataArray
	d.LinkDataArray = aux.LinkDataArray
	return nil
}

// MarshalJSON writes empty arrays instead of null.
func (d LinkData) MarshalJSON() ([]byte, error) {
	type plain LinkData
	p := plain(d)
	if p.NodeDataArray == nil {
		p.NodeDataArray = []mindmap.Node{}
	}
	if p.LinkDataArray == nil {
		p.LinkDataArray = []mindmap.Link{}
	}
	return json.Marshal(p)
}

// DiagramRequest is the body of POST /api/diagram.
type DiagramRequest struct {
	Description string `json:"description"`
}

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a message for people.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// Snapshot Conversion
// =============================================================================

// SimpleSnapshot builds a tree snapshot from a simple node array.
func SimpleSnapshot(nodes []mindmap.Node) mindmap.Snapshot {
	if nodes == nil {
		nodes = []mindmap.Node{}
	}
	return mindmap.Snapshot{Kind: mindmap.KindTree, Nodes: nodes}
}

// LinkedSnapshot builds a linked snapshot from link data.
func LinkedSnapshot(d LinkData) mindmap.Snapshot {
	s := mindmap.Snapshot{Kind: mindmap.KindLinked, Nodes: d.NodeDataArray, Links: d.LinkDataArray}
	if s.Nodes == nil {
		s.Nodes = []mindmap.Node{}
	}
	return s
}

// ToLinkData converts a snapshot to link data. Tree snapshots get their
// derived links spelled out.
func ToLinkData(s mindmap.Snapshot) LinkData {
	d := LinkData{NodeDataArray: s.Nodes, LinkDataArray: s.Links}
	if s.Kind == mindmap.KindTree {
		d.LinkDataArray = nil
		for _, n := range s.Nodes {
			if !n.IsRoot() {
				d.LinkDataArray = append(d.LinkDataArray, mindmap.Link{From: n.Parent, To: n.Key})
			}
		}
	}
	return d
}

// =============================================================================
// Decoding
// =============================================================================

// DecodeSimpleRequest reads {"content": Node[]}.
func DecodeSimpleRequest(r io.Reader) (mindmap.Snapshot, error) {
	var env Envelope[[]mindmap.Node]
	if err := decode(r, &env); err != nil {
		return mindmap.Snapshot{}, err
	}
	nodes, err := env.Unwrap("content")
	if err != nil {
		return mindmap.Snapshot{}, err
	}
	return SimpleSnapshot(nodes), nil
}

// DecodeSimpleResponse reads {"content": {"content": Node[]}}.
func DecodeSimpleResponse(r io.Reader) (mindmap.Snapshot, error) {
	var env Envelope[Envelope[[]mindmap.Node]]
	if err := decode(r, &env); err != nil {
		return mindmap.Snapshot{}, err
	}
	inner, err := env.Unwrap("content")
	if err != nil {
		return mindmap.Snapshot{}, err
	}
	nodes, err := inner.Unwrap("content.content")
	if err != nil {
		return mindmap.Snapshot{}, err
	}
	return SimpleSnapshot(nodes), nil
}

// DecodeLinkDataRequest reads {"content": {nodeDataArray, linkDataArray}}.
func DecodeLinkDataRequest(r io.Reader) (mindmap.Snapshot, error) {
	var env Envelope[LinkData]
	if err := decode(r, &env); err != nil {
		return mindmap.Snapshot{}, err
	}
	d, err := env.Unwrap("content")
	if err != nil {
		return mindmap.Snapshot{}, err
	}
	return LinkedSnapshot(d), nil
}

// DecodeLinkDataResponse reads {"content": {"content": {nodeDataArray, linkDataArray}}}.
func DecodeLinkDataResponse(r io.Reader) (mindmap.Snapshot, error) {
	var env Envelope[Envelope[LinkData]]
	if err := decode(r, &env); err != nil {
		return mindmap.Snapshot{}, err
	}
	inner, err := env.Unwrap("content")
	if err != nil {
		return mindmap.Snapshot{}, err
	}
	d, err := inner.Unwrap("content.content")
	if err != nil {
		return mindmap.Snapshot{}, err
	}
	return LinkedSnapshot(d), nil
}

// DecodeDiagramResponse reads a bare {nodeDataArray, linkDataArray}.
func DecodeDiagramResponse(r io.Reader) (mindmap.Snapshot, error) {
	var d LinkData
	if err := decode(r, &d); err != nil {
		return mindmap.Snapshot{}, err
	}
	return LinkedSnapshot(d), nil
}

func decode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		if errors.Is(err, ErrShape) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrShape)
		}
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
