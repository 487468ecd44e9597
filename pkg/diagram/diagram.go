package diagram

import (
	"bufio"
	"regexp"
	"strings"

	mgerrors "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// MaxNodes caps the size of a generated graph.
const MaxNodes = 200

var (
	groupRE = regexp.MustCompile(`^([^:>]{1,64}):\s*(.+)$`)
	stepsRE = regexp.MustCompile(`(?i)\s*(?:,|\band then\b|\bthen\b)\s*`)
	spaceRE = regexp.MustCompile(`\s+`)
)

// GroupColors are assigned to groups in order of appearance.
var GroupColors = []string{"lightblue", "lightgreen", "lightyellow", "pink", "lavender", "wheat"}

// Generate turns a free-form description into a linked graph.
//
// The description is read one statement at a time; statements are separated
// by newlines or semicolons.
//
//   - "a -> b -> c" links each step to the next.
//   - "Name: a, b" creates a group called Name containing a and b. Steps
//     inside a group that are joined with "->" are also linked.
//   - Anything else is split on commas and "then" and read as a chain.
//
// Labels are matched case-insensitively, so a step mentioned twice is one
// node. Blank statements and statements starting with '#' are ignored.
func Generate(description string) (mindmap.Snapshot, error) {
	if err := mgerrors.ValidatePrompt(description); err != nil {
		return mindmap.Snapshot{}, err
	}

	b := newBuilder()
	sc := bufio.NewScanner(strings.NewReader(description))
	for sc.Scan() {
		for _, stmt := range strings.Split(sc.Text(), ";") {
			b.statement(strings.TrimSpace(stmt))
		}
	}
	if err := sc.Err(); err != nil {
		return mindmap.Snapshot{}, mgerrors.Invalid("description", "read description: %v", err)
	}

	switch {
	case len(b.nodes) == 0:
		return mindmap.Snapshot{}, mgerrors.Invalid("description", "description names no steps")
	case len(b.nodes) > MaxNodes:
		return mindmap.Snapshot{}, mgerrors.Invalid("description", "too many steps (max %d)", MaxNodes)
	}
	return b.snapshot(), nil
}

type builder struct {
	nodes  []mindmap.Node
	links  []mindmap.Link
	byName map[string]int
	linked map[mindmap.Link]bool
	groups int
}

func newBuilder() *builder {
	return &builder{byName: map[string]int{}, linked: map[mindmap.Link]bool{}}
}

func (b *builder) statement(s string) {
	if s == "" || s[0] == '#' {
		return
	}
	if m := groupRE.FindStringSubmatch(s); m != nil {
		if name := clean(m[1]); name != "" {
			b.group(name, m[2])
			return
		}
	}
	if strings.Contains(s, "->") {
		b.chain(strings.Split(s, "->"), mindmap.NoKey)
		return
	}
	b.chain(stepsRE.Split(s, -1), mindmap.NoKey)
}

func (b *builder) group(name, body string) {
	g := b.node("group:"+strings.ToLower(name), name)
	if !b.nodes[g].IsGroup {
		b.nodes[g].IsGroup = true
		b.nodes[g].Color = GroupColors[b.groups%len(GroupColors)]
		b.groups++
	}
	key := b.nodes[g].Key
	if strings.Contains(body, "->") {
		b.chain(strings.Split(body, "->"), key)
		return
	}
	for _, step := range stepsRE.Split(body, -1) {
		if label := clean(step); label != "" {
			b.member(b.node(strings.ToLower(label), label), key)
		}
	}
}

func (b *builder) chain(steps []string, group mindmap.Key) {
	prev := mindmap.NoKey
	for _, step := range steps {
		label := clean(step)
		if label == "" {
			continue
		}
		i := b.node(strings.ToLower(label), label)
		if group != mindmap.NoKey {
			b.member(i, group)
		}
		key := b.nodes[i].Key
		if prev != mindmap.NoKey && prev != key {
			b.link(prev, key)
		}
		prev = key
	}
}

// node returns the index of the node with id, creating it if needed.
func (b *builder) node(id, label string) int {
	if i, ok := b.byName[id]; ok {
		return i
	}
	b.nodes = append(b.nodes, mindmap.Node{Key: mindmap.Key(len(b.nodes) + 1), Text: label})
	b.byName[id] = len(b.nodes) - 1
	return len(b.nodes) - 1
}

// member puts node i in group unless it already belongs to one.
func (b *builder) member(i int, group mindmap.Key) {
	if b.nodes[i].Group == mindmap.NoKey && b.nodes[i].Key != group {
		b.nodes[i].Group = group
	}
}

func (b *builder) link(from, to mindmap.Key) {
	l := mindmap.Link{From: from, To: to}
	if b.linked[l] {
		return
	}
	b.linked[l] = true
	b.links = append(b.links, l)
}

func (b *builder) snapshot() mindmap.Snapshot {
	links := b.links
	if links == nil {
		links = []mindmap.Link{}
	}
	return mindmap.Snapshot{Kind: mindmap.KindLinked, Nodes: b.nodes, Links: links}
}

func clean(s string) string {
	s = strings.Trim(strings.TrimSpace(s), ".")
	return spaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
}
