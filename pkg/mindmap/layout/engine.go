package layout

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// Strategy lays out a whole model and writes the locations back.
type Strategy interface {
	// Layout positions every node of m.
	Layout(ctx context.Context, m *mindmap.Model) error
	// LayoutSide positions the nodes affected by a change on side dir.
	// Strategies without sides lay out the whole model.
	LayoutSide(ctx context.Context, m *mindmap.Model, dir mindmap.Direction) error
}

// Engine is the bidirectional tree layout: the right fan grows at 0°, the
// left fan is the mirror image at 180°, and the root stays put.
type Engine struct {
	Layouter     Layouter // nil selects TreeLayout
	NodeSpacing  float64  // zero selects DefaultNodeSpacing
	LayerSpacing float64  // zero selects DefaultLayerSpacing
}

// NewEngine returns an engine using l for both fans.
func NewEngine(l Layouter) *Engine {
	return &Engine{Layouter: l}
}

func (e *Engine) layouter() Layouter {
	if e.Layouter == nil {
		return TreeLayout{}
	}
	return e.Layouter
}

func (e *Engine) config(dir mindmap.Direction) Config {
	cfg := ConfigFor(dir)
	if e.NodeSpacing > 0 {
		cfg.NodeSpacing = e.NodeSpacing
	}
	if e.LayerSpacing > 0 {
		cfg.LayerSpacing = e.LayerSpacing
	}
	return cfg
}

// Layout lays out both fans and commits every new location in a single model
// update, so observers never see one side laid out without the other.
// A root without children is a no-op. On error the model is unchanged.
func (e *Engine) Layout(ctx context.Context, m *mindmap.Model) error {
	return e.run(ctx, m, mindmap.Right, mindmap.Left)
}

// LayoutSide lays out only the fan growing in dir.
func (e *Engine) LayoutSide(ctx context.Context, m *mindmap.Model, dir mindmap.Direction) error {
	if dir != mindmap.Left {
		dir = mindmap.Right
	}
	return e.run(ctx, m, dir)
}

func (e *Engine) run(ctx context.Context, m *mindmap.Model, sides ...mindmap.Direction) error {
	split, err := Partition(m)
	if err != nil {
		return err
	}

	locs := map[mindmap.Key]mindmap.Point{}
	for _, dir := range sides {
		part := split.Side(dir)
		if part.Empty() {
			continue
		}
		got, err := e.layoutPart(ctx, part, e.config(dir))
		if err != nil {
			return fmt.Errorf("layout %s: %w", dir, err)
		}
		maps.Copy(locs, got)
	}
	if len(locs) == 0 {
		return nil
	}
	return m.SetLocations(locs)
}

func (e *Engine) layoutPart(ctx context.Context, p Part, cfg Config) (map[mindmap.Key]mindmap.Point, error) {
	hooks := observability.Layout()
	side := string(p.Side)
	hooks.OnLayoutStart(ctx, side, len(p.Nodes))
	start := time.Now()

	locs, err := e.layouter().Layout(ctx, p, cfg)
	hooks.OnLayoutComplete(ctx, side, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	// Parts never move nodes outside themselves.
	for k := range locs {
		if !containsKey(p, k) {
			delete(locs, k)
		}
	}
	return locs, nil
}

func containsKey(p Part, k mindmap.Key) bool {
	for _, n := range p.Nodes {
		if n.Key == k {
			return true
		}
	}
	return false
}

// ForKind selects the layout strategy for a model kind.
// Trees use tree; linked graphs use linked.
func ForKind(kind mindmap.Kind, tree *Engine, linked Strategy) Strategy {
	if kind == mindmap.KindLinked && linked != nil {
		return linked
	}
	if tree == nil {
		tree = &Engine{}
	}
	return tree
}
