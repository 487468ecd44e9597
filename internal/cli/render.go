package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/render"
	"github.com/matzehuels/mindgraph/pkg/render/nodelink"
)

type renderOpts struct {
	kind     string
	input    string
	output   string
	format   string
	rankDir  string
	detailed bool
	dot      bool
	scale    float64
}

func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a graph as a node-link diagram",
		Long: `Render the server's graph (or a document file) with Graphviz.

SVG is produced directly; PDF and PNG need rsvg-convert (librsvg) on the
PATH. Use --dot to print the Graphviz source instead.`,
		Example: `  mindgraph render -o mindmap.svg
  mindgraph render --kind linked --format png --scale 3
  mindgraph render --input flow.yaml --detailed --rankdir TB`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.kind, "kind", "k", "tree", "graph kind to load from the server")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "render a document file instead of the server graph")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file, - for stdout (default <graph>.<format>)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", render.FormatSVG, "output format: svg, pdf, png")
	cmd.Flags().StringVar(&opts.rankDir, "rankdir", "", "Graphviz rank direction (default LR)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include references and descriptions in labels")
	cmd.Flags().BoolVar(&opts.dot, "dot", false, "print Graphviz DOT instead of rendering")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "PNG scale factor")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, opts renderOpts) error {
	s, name, err := c.renderSource(ctx, opts)
	if err != nil {
		return err
	}

	dot := nodelink.ToDOT(s, nodelink.Options{RankDir: opts.rankDir, Detailed: opts.detailed})
	if opts.dot {
		_, err := fmt.Fprint(c.out(), dot)
		return err
	}

	prog := newProgress(c.Logger)
	svg, err := nodelink.RenderSVG(ctx, dot)
	if err != nil {
		return err
	}
	data, err := render.Convert(ctx, svg, opts.format, opts.scale)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d nodes", len(s.Nodes)))

	if opts.output == "-" {
		_, err := c.out().Write(data)
		return err
	}
	path := opts.output
	if path == "" {
		path = name + "." + formatOrSVG(opts.format)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	w := c.out()
	printSuccess(w, "Rendered %s graph", name)
	printFile(w, path)
	return nil
}

func (c *CLI) renderSource(ctx context.Context, opts renderOpts) (mindmap.Snapshot, string, error) {
	if opts.input != "" {
		doc, err := graph.ReadDocumentFile(opts.input)
		if err != nil {
			return mindmap.Snapshot{}, "", err
		}
		name := doc.Name
		if name == "" {
			name = graphName(doc.Kind)
		}
		return doc.Snapshot(), name, nil
	}

	kind, err := mindmap.ParseKind(opts.kind)
	if err != nil {
		return mindmap.Snapshot{}, "", err
	}
	cl, err := c.newClient()
	if err != nil {
		return mindmap.Snapshot{}, "", err
	}
	s, err := loadGraph(ctx, cl, kind)
	return s, graphName(kind), err
}

func formatOrSVG(f string) string {
	if f == "" {
		return render.FormatSVG
	}
	return f
}
