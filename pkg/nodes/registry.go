package nodes

import (
	"fmt"
	"slices"

	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/scene"
	"github.com/kjkrol/flowvis/pkg/viewer"
)

// Env is what node constructors may need: the scene painters and layers
// live in, and the window the Window node drives.
type Env struct {
	Scene  *scene.Scene
	Window *viewer.Window
}

type constructor func(name string, env Env) flow.Node

var library = map[string]constructor{
	"PointPainter":    func(name string, env Env) flow.Node { return NewPointPainter(name, env.Scene) },
	"LinePainter":     func(name string, env Env) flow.Node { return NewLinePainter(name, env.Scene) },
	"TrianglePainter": func(name string, env Env) flow.Node { return NewTrianglePainter(name, env.Scene) },
	"Layer":           func(name string, env Env) flow.Node { return NewLayer(name, env.Scene) },
	"Window":          func(name string, env Env) flow.Node { return NewWindow(name, env.Window) },
	"BBox":            func(name string, _ Env) flow.Node { return NewBBox(name) },
	"PointSource":     func(name string, _ Env) flow.Node { return NewPointSource(name) },
	"Sphere":          func(name string, _ Env) flow.Node { return NewSphere(name) },
	"LineSource":      func(name string, _ Env) flow.Node { return NewLineSource(name) },
	"TriangleSource":  func(name string, _ Env) flow.Node { return NewTriangleSource(name) },
}

var sceneKinds = []string{"PointPainter", "LinePainter", "TrianglePainter", "Layer"}

// Kinds lists the node types New accepts, sorted.
func Kinds() []string {
	out := make([]string, 0, len(library))
	for k := range library {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func New(kind, name string, env Env) (flow.Node, error) {
	c, ok := library[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", flow.ErrUnknownType, kind)
	}
	if env.Scene == nil && env.Window != nil {
		env.Scene = env.Window.Scene()
	}
	if env.Scene == nil && slices.Contains(sceneKinds, kind) {
		return nil, fmt.Errorf("node %s: %s needs a scene", name, kind)
	}
	return c(name, env), nil
}
