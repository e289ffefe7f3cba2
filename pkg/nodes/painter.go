// Package nodes wraps the renderer in flow nodes: painters, layers, the
// window, and a few data sources for building charts.
package nodes

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/scene"
)

// Terminal names shared by painter nodes.
const (
	TermOut  = "out"
	TermBBox = "bbox"
)

// painterNode owns one Painter living in the scene's painter arena. The
// arena handle is the node's "out" value.
type painterNode struct {
	flow.Base
	scene    *scene.Scene
	painter  *gpu.Painter
	handle   scene.Handle[gpu.Painter]
	colormap *gpu.ColorMap
	gradient []gpu.GradientStop
}

func newPainterNode(name string, s *scene.Scene, program *gpu.ShaderProgram, primitive gpu.Primitive) painterNode {
	ctx := s.Context()
	colormap := gpu.NewColorMap(ctx)
	painter := gpu.NewPainter(ctx, name, program, primitive, gpu.NewBuffer(ctx, nil), gpu.WithColorMap(colormap))
	n := painterNode{
		Base:     flow.NewBase(name),
		scene:    s,
		painter:  painter,
		handle:   s.Painters.Insert(painter),
		colormap: colormap,
	}
	n.setGradient(DefaultGradient())
	return n
}

func (n *painterNode) Handle() scene.Handle[gpu.Painter] {
	return n.handle
}

func (n *painterNode) Painter() *gpu.Painter {
	return n.painter
}

func (n *painterNode) setGradient(stops []gpu.GradientStop) {
	n.gradient = stops
	if err := n.colormap.SetImage(gpu.GradientLUT(stops, n.colormap.Width())); err != nil {
		slog.Error("set gradient", "painter", n.Name(), "err", err)
	}
}

// upload hands data to the painter after checking it carries every
// attribute the current variant reads. On error the painter is emptied.
func (n *painterNode) upload(data *gpu.StructArray) error {
	for _, attr := range n.painter.Program().Variant().Attributes {
		if !data.HasField(attr) {
			n.painter.Buffer().SetData(nil)
			return &flow.InputError{
				Node:     n.Name(),
				Terminal: attr,
				Reason:   fmt.Sprintf("required by the %s shader", n.painter.Program().Variant().Key),
			}
		}
	}
	n.painter.Buffer().SetData(data)
	return nil
}

// fail empties the painter so it draws nothing and passes err through.
func (n *painterNode) fail(err error) (flow.Outputs, error) {
	n.painter.Buffer().SetData(nil)
	return nil, err
}

func (n *painterNode) outputs() flow.Outputs {
	return flow.Outputs{TermOut: n.handle, TermBBox: n.painter.BBox()}
}

func (n *painterNode) Renamed(string) {
	n.painter.Name = n.Name()
}

// Close releases the painter's GPU resources and frees its handle.
func (n *painterNode) Close() {
	n.scene.RemovePainter(n.handle)
}

func checkLen(node, terminal string, got, want int) error {
	if got != want {
		return &flow.InputError{Node: node, Terminal: terminal, Reason: fmt.Sprintf("has %d values, want %d", got, want)}
	}
	return nil
}

func setVec3(a *gpu.StructArray, field string, i int, v mgl32.Vec3) {
	_ = a.SetFloat32(field, i, v[0], v[1], v[2])
}

func setVec4(a *gpu.StructArray, field string, i int, v mgl32.Vec4) {
	_ = a.SetFloat32(field, i, v[0], v[1], v[2], v[3])
}
