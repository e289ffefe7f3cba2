package scene

import (
	"slices"

	"github.com/kjkrol/flowvis/pkg/gpu"
)

// Layer is a named, ordered set of painters drawn together. It holds
// handles, not painters, so destroying a painter elsewhere cannot leave a
// dangling reference here.
type Layer struct {
	Name     string
	Visible  bool
	painters []Handle[gpu.Painter]
}

func NewLayer(name string) *Layer {
	return &Layer{Name: name, Visible: true}
}

// SetPainter appends h unless it is already present.
func (l *Layer) SetPainter(h Handle[gpu.Painter]) {
	if slices.Contains(l.painters, h) {
		return
	}
	l.painters = append(l.painters, h)
}

func (l *Layer) UnsetPainter(h Handle[gpu.Painter]) {
	l.painters = slices.DeleteFunc(l.painters, func(e Handle[gpu.Painter]) bool { return e == h })
}

func (l *Layer) HasPainter(h Handle[gpu.Painter]) bool {
	return slices.Contains(l.painters, h)
}

// Painters returns a snapshot of the painter handles in draw order.
func (l *Layer) Painters() []Handle[gpu.Painter] {
	return slices.Clone(l.painters)
}

func (l *Layer) Len() int {
	return len(l.painters)
}

func (l *Layer) ToggleVisibility() {
	l.Visible = !l.Visible
}
