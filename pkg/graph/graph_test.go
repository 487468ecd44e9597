package graph

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

func TestDecodeSimpleResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"ok", `{"content":{"content":[{"key":1,"text":"Root","loc":"0 0"},{"key":2,"parent":1,"dir":"left"}]}}`, 2, false},
		{"empty array", `{"content":{"content":[]}}`, 0, false},
		{"missing outer", `{}`, 0, true},
		{"missing inner", `{"content":{}}`, 0, true},
		{"null inner", `{"content":{"content":null}}`, 0, true},
		{"empty body", ``, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeSimpleResponse(strings.NewReader(tt.body))
			if tt.wantErr {
				if !errors.Is(err, ErrShape) {
					t.Fatalf("err = %v, want ErrShape", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if s.Kind != mindmap.KindTree || len(s.Nodes) != tt.want {
				t.Errorf("snapshot = %+v", s)
			}
		})
	}
}

func TestDecodeLinkDataResponse(t *testing.T) {
	body := `{"content":{"content":{"nodeDataArray":[{"key":1,"isGroup":true},{"key":2,"group":1}],"linkDataArray":[{"from":2,"to":2}]}}}`
	s, err := DecodeLinkDataResponse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Kind != mindmap.KindLinked || len(s.Nodes) != 2 || len(s.Links) != 1 {
		t.Errorf("snapshot = %+v", s)
	}
	if !s.Nodes[0].IsGroup || s.Nodes[1].Group != 1 {
		t.Errorf("group fields lost: %+v", s.Nodes)
	}

	_, err = DecodeLinkDataResponse(strings.NewReader(`{"content":{"content":{"linkDataArray":[]}}}`))
	if !errors.Is(err, ErrShape) {
		t.Errorf("err = %v, want ErrShape", err)
	}
}

func TestDecodeRequests(t *testing.T) {
	s, err := DecodeSimpleRequest(strings.NewReader(`{"content":[{"key":1}]}`))
	if err != nil || len(s.Nodes) != 1 {
		t.Errorf("simple request: %+v, %v", s, err)
	}
	if _, err := DecodeSimpleRequest(strings.NewReader(`{"nodes":[]}`)); !errors.Is(err, ErrShape) {
		t.Errorf("err = %v, want ErrShape", err)
	}

	s, err = DecodeLinkDataRequest(strings.NewReader(`{"content":{"nodeDataArray":[{"key":1}]}}`))
	if err != nil || len(s.Nodes) != 1 || len(s.Links) != 0 {
		t.Errorf("linkdata request: %+v, %v", s, err)
	}
}

func TestLinkDataMarshalsEmptyArrays(t *testing.T) {
	data, err := LinkData{}.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"nodeDataArray":[],"linkDataArray":[]}` {
		t.Errorf("got %s", data)
	}
}

func TestToLinkDataSpellsOutTreeLinks(t *testing.T) {
	d := ToLinkData(mindmap.Snapshot{Kind: mindmap.KindTree, Nodes: []mindmap.Node{{Key: 1}, {Key: 2, Parent: 1}}})
	if len(d.LinkDataArray) != 1 || d.LinkDataArray[0] != (mindmap.Link{From: 1, To: 2}) {
		t.Errorf("links = %v", d.LinkDataArray)
	}
}

func TestDocumentFileRoundTrip(t *testing.T) {
	doc := NewDocument("roadmap", mindmap.Snapshot{Kind: mindmap.KindTree, Nodes: []mindmap.Node{
		{Key: 1, Text: "Root", Dir: mindmap.Right, Loc: "0 0"},
		{Key: 2, Text: "Idea A", Parent: 1, Dir: mindmap.Left, Loc: "-120 0", Brush: "skyblue"},
	}})
	doc.Touch(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))

	for _, name := range []string{"g.json", "g.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := WriteDocumentFile(doc, path); err != nil {
				t.Fatalf("write: %v", err)
			}
			got, err := ReadDocumentFile(path)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !got.Snapshot().Equal(doc.Snapshot()) {
				t.Errorf("snapshot changed:\n got %+v\nwant %+v", got.Snapshot(), doc.Snapshot())
			}
			if got.Revision != 1 || !got.UpdatedAt.Equal(doc.UpdatedAt) || got.Name != "roadmap" {
				t.Errorf("metadata = %+v", got)
			}
		})
	}
}

func TestReadDocumentRejectsBrokenGraph(t *testing.T) {
	_, err := UnmarshalDocument([]byte(`{"name":"x","kind":"tree","nodes":[{"key":2,"parent":9}]}`))
	if !errors.Is(err, mindmap.ErrUnknownNode) {
		t.Errorf("err = %v, want ErrUnknownNode", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"a.json": FormatJSON,
		"a.YAML": FormatYAML,
		"a.yml":  FormatYAML,
		"a":      FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
