package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/geom"
	"github.com/kjkrol/flowvis/pkg/scene"
	"github.com/kjkrol/flowvis/pkg/viewer"
)

const TermLayers = "layers"

var ErrNoWindow = errors.New("no window is set")

// Window pushes the connected layers and the bbox into a viewer window and
// drives its clip planes and field of view.
type Window struct {
	flow.Base
	win     *viewer.Window
	near    float32
	far     float32
	fov     float32
	sources linked[scene.Layer]
}

func NewWindow(name string, win *viewer.Window) *Window {
	return &Window{
		Base:    flow.NewBase(name),
		win:     win,
		near:    0.1,
		far:     100,
		fov:     60,
		sources: make(linked[scene.Layer]),
	}
}

func (n *Window) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: TermLayers, Dir: flow.In, Multi: true},
		{Name: TermBBox, Dir: flow.In, Optional: true},
	}
}

func (n *Window) SetControl(key string, value any) error {
	var err error
	switch key {
	case "near_clip":
		n.near, err = toRange(key, value, 0.1, 500)
	case "far_clip":
		n.far, err = toRange(key, value, 1, 500)
	case "fov":
		n.fov, err = toRange(key, value, 1, 100)
	default:
		err = controlError(key, value, "a window control")
	}
	return err
}

func (n *Window) Process(_ context.Context, in flow.Inputs) (flow.Outputs, error) {
	if n.win == nil {
		return nil, fmt.Errorf("window node %s: %w", n.Name(), ErrNoWindow)
	}
	if err := n.sources.sync(n.Name(), TermLayers, flow.Multi(in, TermLayers), n.win.SetLayer, n.win.UnsetLayer); err != nil {
		return nil, err
	}
	bbox, _, err := flow.Input[*geom.BBox](n.Name(), in, TermBBox)
	if err != nil {
		return nil, err
	}

	n.win.Camera().SetClip(n.near, n.far, n.fov)
	n.win.SetBBox(bbox)
	n.win.RenderLater()
	return flow.Outputs{}, nil
}

func (n *Window) Disconnected(local string, remote flow.Endpoint) {
	if local == TermLayers && n.win != nil {
		n.sources.drop(remote.Node, n.win.UnsetLayer)
	}
}

func (n *Window) PeerRenamed(local, old, name string) {
	if local == TermLayers {
		n.sources.rename(old, name)
	}
}
