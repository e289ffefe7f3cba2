// Package scene keeps the painters and layers of one GL context and draws
// them in order. A Scene is owned by the render thread.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kjkrol/flowvis/pkg/geom"
	"github.com/kjkrol/flowvis/pkg/gpu"
)

type Scene struct {
	ctx      gpu.Context
	Painters *Arena[gpu.Painter]
	Layers   *Arena[Layer]
	active   []Handle[Layer]
}

func New(ctx gpu.Context) *Scene {
	return &Scene{
		ctx:      ctx,
		Painters: NewArena[gpu.Painter](),
		Layers:   NewArena[Layer](),
	}
}

func (s *Scene) Context() gpu.Context {
	return s.ctx
}

// SetLayer activates h, moving it to the end of the draw order when it is
// already active.
func (s *Scene) SetLayer(h Handle[Layer]) {
	s.UnsetLayer(h)
	s.active = append(s.active, h)
}

func (s *Scene) UnsetLayer(h Handle[Layer]) {
	s.active = slices.DeleteFunc(s.active, func(e Handle[Layer]) bool { return e == h })
}

func (s *Scene) ActiveLayers() []Handle[Layer] {
	return slices.Clone(s.active)
}

// RemovePainter deletes the painter's GPU resources and frees its handle.
// Layers still holding the handle prune it on the next frame.
func (s *Scene) RemovePainter(h Handle[gpu.Painter]) {
	p, err := s.Painters.Remove(h)
	if err != nil {
		return
	}
	p.Delete()
}

func (s *Scene) RemoveLayer(h Handle[Layer]) {
	s.UnsetLayer(h)
	_, _ = s.Layers.Remove(h)
}

// Render clears the framebuffer and draws every visible painter of every
// visible active layer. A failing painter is logged and skipped; the
// returned error joins all painter failures of the frame.
func (s *Scene) Render(view gpu.View) error {
	s.ctx.Clear(gpu.ClearColor | gpu.ClearDepth | gpu.ClearStencil)

	var errs []error
	active := s.active[:0]
	for _, lh := range s.active {
		layer, err := s.Layers.Get(lh)
		if err != nil {
			slog.Debug("prune layer", "layer", lh, "err", err)
			continue
		}
		active = append(active, lh)
		if !layer.Visible {
			continue
		}
		for _, ph := range layer.Painters() {
			painter, err := s.Painters.Get(ph)
			if err != nil {
				slog.Debug("prune painter", "layer", layer.Name, "painter", ph, "err", err)
				layer.UnsetPainter(ph)
				continue
			}
			if !painter.Visible {
				continue
			}
			if err := renderPainter(painter, view); err != nil {
				slog.Error("render painter", "layer", layer.Name, "painter", painter.Name, "err", err)
				errs = append(errs, fmt.Errorf("layer %s: %w", layer.Name, err))
			}
		}
	}
	s.active = active
	return errors.Join(errs...)
}

func renderPainter(p *gpu.Painter, view gpu.View) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("painter %s: panic: %v", p.Name, r)
		}
	}()
	return p.Render(view)
}

// BBox is the union of the bounds of every painter in the active layers.
func (s *Scene) BBox() *geom.BBox {
	box := &geom.BBox{}
	for _, lh := range s.active {
		layer, err := s.Layers.Get(lh)
		if err != nil {
			continue
		}
		for _, ph := range layer.painters {
			p, err := s.Painters.Get(ph)
			if err != nil {
				continue
			}
			if b := p.BBox(); !b.IsEmpty() {
				box.Update([]mgl32.Vec3{b.Min, b.Max}, false)
			}
		}
	}
	if box.IsEmpty() {
		return nil
	}
	return box
}
