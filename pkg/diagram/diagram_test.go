package diagram

import (
	"errors"
	"slices"
	"testing"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

func labels(s mindmap.Snapshot) []string {
	var out []string
	for _, n := range s.Nodes {
		out = append(out, n.Text)
	}
	return out
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name   string
		desc   string
		labels []string
		links  []mindmap.Link
	}{
		{
			name:   "arrow chain",
			desc:   "plan -> build -> ship",
			labels: []string{"plan", "build", "ship"},
			links:  []mindmap.Link{{From: 1, To: 2}, {From: 2, To: 3}},
		},
		{
			name:   "comma and then",
			desc:   "Collect data, clean it, then train the model",
			labels: []string{"Collect data", "clean it", "train the model"},
			links:  []mindmap.Link{{From: 1, To: 2}, {From: 2, To: 3}},
		},
		{
			name:   "and then",
			desc:   "wake up and then make coffee",
			labels: []string{"wake up", "make coffee"},
			links:  []mindmap.Link{{From: 1, To: 2}},
		},
		{
			name:   "labels deduplicated across statements",
			desc:   "a -> b; B -> c\nc -> a",
			labels: []string{"a", "b", "c"},
			links:  []mindmap.Link{{From: 1, To: 2}, {From: 2, To: 3}, {From: 3, To: 1}},
		},
		{
			name:   "repeated link kept once",
			desc:   "idea -> test\nidea -> test",
			labels: []string{"idea", "test"},
			links:  []mindmap.Link{{From: 1, To: 2}},
		},
		{
			name:   "comments and blanks skipped",
			desc:   "# notes\n\nsolo step",
			labels: []string{"solo step"},
			links:  []mindmap.Link{},
		},
		{
			name:   "whitespace collapsed",
			desc:   "  big    idea  ->  next.",
			labels: []string{"big idea", "next"},
			links:  []mindmap.Link{{From: 1, To: 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Generate(tt.desc)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if s.Kind != mindmap.KindLinked {
				t.Errorf("kind = %s", s.Kind)
			}
			if got := labels(s); !slices.Equal(got, tt.labels) {
				t.Errorf("labels = %q, want %q", got, tt.labels)
			}
			if !slices.Equal(s.Links, tt.links) {
				t.Errorf("links = %v, want %v", s.Links, tt.links)
			}
			if _, err := mindmap.FromSnapshot(s); err != nil {
				t.Errorf("generated graph is invalid: %v", err)
			}
		})
	}
}

func TestGenerateGroups(t *testing.T) {
	s, err := Generate("Backend: api, db\nFrontend: ui -> api")
	if err != nil {
		t.Fatal(err)
	}
	byText := map[string]mindmap.Node{}
	for _, n := range s.Nodes {
		byText[n.Text] = n
	}

	be, fe := byText["Backend"], byText["Frontend"]
	if !be.IsGroup || !fe.IsGroup {
		t.Fatalf("groups not marked: %+v %+v", be, fe)
	}
	if be.Color == "" || be.Color == fe.Color {
		t.Errorf("group colours = %q, %q", be.Color, fe.Color)
	}
	if byText["db"].Group != be.Key {
		t.Errorf("db group = %d, want %d", byText["db"].Group, be.Key)
	}
	// api was placed in Backend first and stays there.
	if byText["api"].Group != be.Key {
		t.Errorf("api group = %d, want %d", byText["api"].Group, be.Key)
	}
	if byText["ui"].Group != fe.Key {
		t.Errorf("ui group = %d, want %d", byText["ui"].Group, fe.Key)
	}
	want := mindmap.Link{From: byText["ui"].Key, To: byText["api"].Key}
	if !slices.Equal(s.Links, []mindmap.Link{want}) {
		t.Errorf("links = %v, want [%v]", s.Links, want)
	}
	if _, err := mindmap.FromSnapshot(s); err != nil {
		t.Errorf("generated graph is invalid: %v", err)
	}
}

func TestGenerateRejects(t *testing.T) {
	tests := []struct {
		name string
		desc string
	}{
		{"too short", "ab"},
		{"blank", "     "},
		{"only comments", "# nothing here"},
		{"only separators", ";; -> -> ;;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.desc)
			var ve *mgerrors.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("Generate(%q) = %v, want validation error", tt.desc, err)
			}
		})
	}
}
