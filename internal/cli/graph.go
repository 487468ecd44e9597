package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/pkg/client"
	"github.com/matzehuels/mindgraph/pkg/diagram"
	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/httputil"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/mindmap/layout"
)

const formatOutline = "outline"

// =============================================================================
// show
// =============================================================================

type showOpts struct {
	kind    string
	format  string
	output  string
	offline bool
}

func (c *CLI) showCommand() *cobra.Command {
	var opts showOpts

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a graph stored on the server",
		Long: `Load the simple (tree) or link-data graph from the server and print it.

The last successful load is cached; when the server cannot be reached the
cached copy is shown instead, marked as cached.`,
		Example: `  mindgraph show
  mindgraph show --kind linked --format yaml
  mindgraph show -o mindmap.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runShow(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "tree", "graph kind: tree (simple) or linked (linkdata)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatOutline, "output format: outline, json, yaml")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the document to a file (.json or .yaml)")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "use the cached copy without contacting the server")

	return cmd
}

func (c *CLI) runShow(ctx context.Context, opts showOpts) error {
	kind, err := mindmap.ParseKind(opts.kind)
	if err != nil {
		return err
	}
	cl, err := c.newClient()
	if err != nil {
		return err
	}

	doc, cached, err := c.fetch(ctx, cl, kind, opts.offline)
	if err != nil {
		return err
	}

	w := c.out()
	if opts.output != "" {
		if err := graph.WriteDocumentFile(doc, opts.output); err != nil {
			return err
		}
		printSuccess(w, "Saved %s graph", doc.Name)
		printFile(w, opts.output)
		return nil
	}

	switch opts.format {
	case formatOutline, "":
		s := doc.Snapshot()
		printOutline(w, s)
		printStats(w, s, cached)
		return nil
	case graph.FormatJSON, graph.FormatYAML:
		return graph.WriteDocument(doc, w, opts.format)
	default:
		return fmt.Errorf("unknown format %q (want outline, json or yaml)", opts.format)
	}
}

// fetch loads a graph from the server, caching the result. When the server
// is unreachable it falls back to the cached copy and reports cached=true.
func (c *CLI) fetch(ctx context.Context, cl *client.Client, kind mindmap.Kind, offline bool) (*graph.Document, bool, error) {
	name := graphName(kind)
	key := httputil.Key(cl.BaseURL(), name)

	cache, err := newCache()
	if err != nil {
		c.Logger.Debug("cache unavailable", "err", err)
	}

	if offline {
		doc, ok := cachedDocument(cache, key)
		if !ok {
			return nil, false, fmt.Errorf("no cached copy of the %s graph", name)
		}
		return doc, true, nil
	}

	prog := newProgress(c.Logger)
	spin := newSpinner(ctx, "Loading "+name+" graph")
	spin.Start()
	s, err := loadGraph(ctx, cl, kind)
	spin.Stop()

	if err != nil {
		if !errors.Is(err, client.ErrNetwork) {
			return nil, false, err
		}
		doc, ok := cachedDocument(cache, key)
		if !ok {
			return nil, false, err
		}
		c.Logger.Warn("server unreachable, showing cached copy", "err", err)
		if age, ok := cache.Age(key); ok {
			c.Logger.Debug("cached copy", "age", age.Round(time.Second))
		}
		return doc, true, nil
	}

	doc := graph.NewDocument(name, s)
	if cache != nil {
		if err := cache.Set(key, doc); err != nil {
			c.Logger.Debug("cache write failed", "err", err)
		}
	}
	prog.done(fmt.Sprintf("Loaded %d nodes", len(s.Nodes)))
	return doc, false, nil
}

func cachedDocument(cache *httputil.Cache, key string) (*graph.Document, bool) {
	if cache == nil {
		return nil, false
	}
	var doc graph.Document
	if ok, err := cache.Get(key, &doc); !ok || err != nil {
		return nil, false
	}
	return &doc, true
}

// =============================================================================
// add
// =============================================================================

type addOpts struct {
	kind        string
	parent      int
	dir         string
	description string
	reference   string
	brush       string
}

func (c *CLI) addCommand() *cobra.Command {
	var opts addOpts

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a node to a graph on the server",
		Long: `Load the graph, insert a node under --parent, lay out the affected side
and save the result back.

Children of the root take the side given by --dir; deeper nodes always
inherit the side of their parent.`,
		Example: `  mindgraph add "Idea A" --dir left
  mindgraph add "Detail" --parent 2 --desc "follow up next week"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAdd(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "tree", "graph kind: tree or linked")
	cmd.Flags().IntVarP(&opts.parent, "parent", "p", 0, "parent node key (default: the root)")
	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "side for children of the root: left or right")
	cmd.Flags().StringVar(&opts.description, "desc", "", "node description")
	cmd.Flags().StringVar(&opts.reference, "ref", "", "node reference")
	cmd.Flags().StringVar(&opts.brush, "brush", "", "node colour (default from config)")

	return cmd
}

func (c *CLI) runAdd(ctx context.Context, title string, opts addOpts) error {
	kind, err := mindmap.ParseKind(opts.kind)
	if err != nil {
		return err
	}
	dir, err := mindmap.ParseDirection(opts.dir)
	if err != nil {
		return err
	}
	ed, err := c.newEditor(kind)
	if err != nil {
		return err
	}
	if err := ed.Load(ctx); err != nil {
		return err
	}

	parent := mindmap.Key(opts.parent)
	if parent == mindmap.NoKey {
		root, err := rootOf(ed.Snapshot())
		if err != nil {
			return err
		}
		parent = root.Key
	}

	ins, err := ed.Insert(ctx, mindmap.InsertNodeCommand{
		ParentKey: parent,
		Fields: mindmap.NodeFields{
			Title:       title,
			Description: opts.description,
			Reference:   opts.reference,
			Dir:         dir,
			Brush:       opts.brush,
		},
	})
	if err != nil {
		return err
	}
	if err := ed.Save(ctx); err != nil {
		return err
	}

	w := c.out()
	printSuccess(w, "Added %s", StyleHighlight.Render(ins.Node.Label()))
	printKeyValue(w, "key", fmt.Sprint(ins.Node.Key))
	printKeyValue(w, "parent", fmt.Sprint(parent))
	printKeyValue(w, "side", string(ins.Side))
	if n, ok := findNode(ed.Snapshot(), ins.Node.Key); ok {
		printKeyValue(w, "location", n.Loc)
	}
	return nil
}

// rootOf returns the node new children attach to by default: the tree root,
// or for linked graphs the first node without incoming links.
func rootOf(s mindmap.Snapshot) (mindmap.Node, error) {
	if s.Kind != mindmap.KindLinked {
		m, err := mindmap.FromSnapshot(s)
		if err != nil {
			return mindmap.Node{}, err
		}
		return m.Root()
	}
	rows := outline(s)
	if len(rows) == 0 {
		return mindmap.Node{}, errors.New("graph is empty; pass --parent")
	}
	return rows[0].Node, nil
}

func findNode(s mindmap.Snapshot, key mindmap.Key) (mindmap.Node, bool) {
	for _, n := range s.Nodes {
		if n.Key == key {
			return n, true
		}
	}
	return mindmap.Node{}, false
}

// =============================================================================
// save
// =============================================================================

type saveOpts struct {
	kind   string
	layout bool
}

func (c *CLI) saveCommand() *cobra.Command {
	var opts saveOpts

	cmd := &cobra.Command{
		Use:   "save FILE",
		Short: "Replace a graph on the server with a document file",
		Long: `Read a JSON or YAML document (as written by "mindgraph show -o") and
save it as the server's simple or link-data graph.`,
		Example: `  mindgraph save mindmap.yaml
  mindgraph save flow.json --kind linked --layout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSave(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "", "graph kind (default: the document's kind)")
	cmd.Flags().BoolVar(&opts.layout, "layout", false, "lay the graph out before saving")

	return cmd
}

func (c *CLI) runSave(ctx context.Context, path string, opts saveOpts) error {
	doc, err := graph.ReadDocumentFile(path)
	if err != nil {
		return err
	}
	s := doc.Snapshot()
	if opts.kind != "" {
		if s.Kind, err = mindmap.ParseKind(opts.kind); err != nil {
			return err
		}
	}
	if s.Kind == "" {
		s.Kind = mindmap.KindTree
	}

	if opts.layout {
		if s, err = c.layoutSnapshot(ctx, s); err != nil {
			return err
		}
	}

	cl, err := c.newClient()
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)
	saved, err := saveGraph(ctx, cl, s)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Saved %d nodes", len(saved.Nodes)))

	w := c.out()
	printSuccess(w, "Saved %s graph from %s", graphName(saved.Kind), path)
	printStats(w, saved, false)
	return nil
}

func (c *CLI) layoutSnapshot(ctx context.Context, s mindmap.Snapshot) (mindmap.Snapshot, error) {
	m, err := mindmap.FromSnapshot(s)
	if err != nil {
		return s, err
	}
	engine, err := c.settings().Engine()
	if err != nil {
		return s, err
	}
	strategy := layout.ForKind(s.Kind, engine, layout.GraphvizLayout{})
	if err := strategy.Layout(ctx, m); err != nil {
		return s, err
	}
	return m.Snapshot(), nil
}

// =============================================================================
// diagram
// =============================================================================

type diagramOpts struct {
	file   string
	local  bool
	save   bool
	output string
}

func (c *CLI) diagramCommand() *cobra.Command {
	var opts diagramOpts

	cmd := &cobra.Command{
		Use:   "diagram [DESCRIPTION]",
		Short: "Generate a node-link diagram from a text description",
		Long: `Turn a plain-text description into a linked graph.

Each line (or ";"-separated statement) is a chain of steps joined by "->",
",", "then" or "and then". "Group: a, b -> c" puts the steps in a group.`,
		Example: `  mindgraph diagram "request -> api -> db"
  mindgraph diagram --file flow.txt --save
  mindgraph diagram --local "plan, build, ship" -o flow.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := readDescription(args, opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return c.runDiagram(cmd.Context(), desc, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "F", "", "read the description from a file (- for stdin)")
	cmd.Flags().BoolVar(&opts.local, "local", false, "generate locally instead of asking the server")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the result as the link-data graph")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the diagram to a file (.json or .yaml)")

	return cmd
}

func readDescription(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", errors.New("pass a description or --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	case file != "":
		data, err := os.ReadFile(file)
		return string(data), err
	default:
		return "", errors.New("no description given")
	}
}

func (c *CLI) runDiagram(ctx context.Context, desc string, opts diagramOpts) error {
	var cl *client.Client
	if !opts.local || opts.save {
		var err error
		if cl, err = c.newClient(); err != nil {
			return err
		}
	}

	var (
		s   mindmap.Snapshot
		err error
	)
	if opts.local {
		s, err = diagram.Generate(desc)
	} else {
		spin := newSpinner(ctx, "Generating diagram")
		spin.Start()
		s, err = cl.GenerateDiagram(ctx, desc)
		spin.Stop()
	}
	if err != nil {
		return err
	}

	if opts.save {
		if s, err = cl.SaveLinkData(ctx, s); err != nil {
			return err
		}
	}

	w := c.out()
	if opts.output != "" {
		if err := graph.WriteDocumentFile(graph.NewDocument(graph.LinkDataGraphName, s), opts.output); err != nil {
			return err
		}
		printSuccess(w, "Generated %d nodes", len(s.Nodes))
		printFile(w, opts.output)
		return nil
	}

	printOutline(w, s)
	printStats(w, s, false)
	if !opts.save {
		printNextStep(w, "Store it with", "mindgraph diagram --save "+quote(desc))
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func graphName(kind mindmap.Kind) string {
	if kind == mindmap.KindLinked {
		return graph.LinkDataGraphName
	}
	return graph.SimpleGraphName
}

func loadGraph(ctx context.Context, cl *client.Client, kind mindmap.Kind) (mindmap.Snapshot, error) {
	if kind == mindmap.KindLinked {
		return cl.LoadLinkData(ctx)
	}
	return cl.LoadSimple(ctx)
}

func saveGraph(ctx context.Context, cl *client.Client, s mindmap.Snapshot) (mindmap.Snapshot, error) {
	if s.Kind == mindmap.KindLinked {
		return cl.SaveLinkData(ctx, s)
	}
	return cl.SaveSimple(ctx, s)
}

func quote(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
