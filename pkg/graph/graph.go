package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// Well-known document names served by the REST endpoints.
const (
	SimpleGraphName   = "simple"
	LinkDataGraphName = "linkdata"
)

// File formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// =============================================================================
// Document - Stored Graph
// =============================================================================

// Document is a named, versioned snapshot as kept by a store.
type Document struct {
	ID        string         `json:"id,omitempty" bson:"_id,omitempty" yaml:"id,omitempty"`
	Name      string         `json:"name" bson:"name" yaml:"name"`
	Kind      mindmap.Kind   `json:"kind" bson:"kind" yaml:"kind"`
	Nodes     []mindmap.Node `json:"nodes" bson:"nodes" yaml:"nodes"`
	Links     []mindmap.Link `json:"links,omitempty" bson:"links,omitempty" yaml:"links,omitempty"`
	Revision  int64          `json:"revision" bson:"revision" yaml:"revision"`
	UpdatedAt time.Time      `json:"updated_at" bson:"updated_at" yaml:"updated_at"`
}

// NewDocument wraps a snapshot under name.
func NewDocument(name string, s mindmap.Snapshot) *Document {
	s = s.Clone()
	return &Document{Name: name, Kind: s.Kind, Nodes: s.Nodes, Links: s.Links}
}

// Snapshot returns a copy of the document's graph.
func (d *Document) Snapshot() mindmap.Snapshot {
	return mindmap.Snapshot{Kind: d.Kind, Nodes: d.Nodes, Links: d.Links}.Clone()
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := *d
	s := d.Snapshot()
	c.Nodes, c.Links = s.Nodes, s.Links
	return &c
}

// Touch advances the revision and stamps the update time.
func (d *Document) Touch(now time.Time) {
	d.Revision++
	d.UpdatedAt = now.UTC()
}

// =============================================================================
// Document Serialization API
// =============================================================================

// FormatFromPath returns the file format implied by a path's extension.
// Anything that is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// MarshalDocument encodes d as JSON.
func MarshalDocument(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(d, &buf, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalDocument decodes a JSON document.
func UnmarshalDocument(data []byte) (*Document, error) {
	return ReadDocument(bytes.NewReader(data), FormatJSON)
}

// WriteDocument writes d to w in the given format.
func WriteDocument(d *Document, w io.Writer, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// ReadDocument decodes a document from r and checks its graph.
func ReadDocument(r io.Reader, format string) (*Document, error) {
	var d Document
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	if d.Kind == "" {
		d.Kind = mindmap.KindTree
	}
	if _, err := mindmap.FromSnapshot(d.Snapshot()); err != nil {
		return nil, err
	}
	return &d, nil
}

// WriteDocumentFile writes d to path, picking the format from the extension.
func WriteDocumentFile(d *Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteDocument(d, f, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadDocumentFile reads a document from path, picking the format from the
// extension.
func ReadDocumentFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDocument(f, FormatFromPath(path))
}
