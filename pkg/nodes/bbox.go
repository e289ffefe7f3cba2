package nodes

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/geom"
)

const (
	TermPoints = "points"
	TermIdx    = "idx"
)

// BBox turns its "points" text control ("x y z, x y z, ...") into a box.
// When points are connected it also outputs idx, true for every point
// inside the box.
type BBox struct {
	flow.Base
	text string
}

func NewBBox(name string) *BBox {
	return &BBox{Base: flow.NewBase(name)}
}

func (n *BBox) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: TermPoints, Dir: flow.In, Optional: true},
		{Name: TermBBox, Dir: flow.Out},
		{Name: TermIdx, Dir: flow.Out},
	}
}

func (n *BBox) SetControl(key string, value any) error {
	if key != "points" {
		return controlError(key, value, "points")
	}
	s, err := toString(key, value)
	if err != nil {
		return err
	}
	if _, err := geom.ParseBBox(s); err != nil {
		return fmt.Errorf("%w: %v", flow.ErrBadControl, err)
	}
	n.text = s
	return nil
}

func (n *BBox) Process(_ context.Context, in flow.Inputs) (flow.Outputs, error) {
	box, err := geom.ParseBBox(n.text)
	if err != nil {
		return nil, fmt.Errorf("bbox %s: %w", n.Name(), err)
	}
	out := flow.Outputs{TermBBox: box}
	points, ok, err := flow.Input[[]mgl32.Vec3](n.Name(), in, TermPoints)
	if err != nil {
		return nil, err
	}
	if ok {
		idx := make([]bool, len(points))
		for i, p := range points {
			idx[i] = box.Contains(p)
		}
		out[TermIdx] = idx
	}
	return out, nil
}
