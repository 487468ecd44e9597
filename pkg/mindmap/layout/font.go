package layout

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/matzehuels/mindgraph/pkg/mindmap"
)

// labelPadding is added to the measured label width on each box.
const labelPadding = 8

// FontSizer returns a [Sizer] that measures labels set in Go Regular at
// size points. The returned Sizer is safe for concurrent use.
func FontSizer(size float64) (Sizer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}

	var mu sync.Mutex // font.Face is not safe for concurrent use
	height := math.Max(float64(face.Metrics().Height.Ceil()), MinNodeHeight)
	return func(n mindmap.Node) Size {
		mu.Lock()
		w := font.MeasureString(face, n.Label()).Ceil()
		mu.Unlock()
		return Size{W: math.Max(float64(w+labelPadding), MinNodeWidth), H: height}
	}, nil
}
