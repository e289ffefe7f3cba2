package nodes

import (
	"context"
	"fmt"
	"slices"

	"github.com/kjkrol/flowvis/pkg/flow"
	"github.com/kjkrol/flowvis/pkg/gpu"
	"github.com/kjkrol/flowvis/pkg/scene"
)

const TermPainters = "painters"

// Layer groups the painters connected to it into one scene layer.
type Layer struct {
	flow.Base
	scene   *scene.Scene
	layer   *scene.Layer
	handle  scene.Handle[scene.Layer]
	sources linked[gpu.Painter]
}

func NewLayer(name string, s *scene.Scene) *Layer {
	l := scene.NewLayer(name)
	return &Layer{
		Base:    flow.NewBase(name),
		scene:   s,
		layer:   l,
		handle:  s.Layers.Insert(l),
		sources: make(linked[gpu.Painter]),
	}
}

func (n *Layer) Handle() scene.Handle[scene.Layer] {
	return n.handle
}

func (n *Layer) Layer() *scene.Layer {
	return n.layer
}

func (n *Layer) Terminals() []flow.Terminal {
	return []flow.Terminal{
		{Name: TermPainters, Dir: flow.In, Multi: true},
		{Name: TermOut, Dir: flow.Out},
	}
}

// Process makes the layer hold exactly the connected painters, adding them
// in source name order.
func (n *Layer) Process(_ context.Context, in flow.Inputs) (flow.Outputs, error) {
	err := n.sources.sync(n.Name(), TermPainters, flow.Multi(in, TermPainters), n.layer.SetPainter, n.layer.UnsetPainter)
	if err != nil {
		return nil, err
	}
	return flow.Outputs{TermOut: n.handle}, nil
}

func (n *Layer) Disconnected(local string, remote flow.Endpoint) {
	if local == TermPainters {
		n.sources.drop(remote.Node, n.layer.UnsetPainter)
	}
}

func (n *Layer) PeerRenamed(local, old, name string) {
	if local == TermPainters {
		n.sources.rename(old, name)
	}
}

// Renamed keeps the scene layer name in step with the node.
func (n *Layer) Renamed(string) {
	n.layer.Name = n.Name()
}

func (n *Layer) Close() {
	n.scene.RemoveLayer(n.handle)
}

// linked tracks the scene handles received on a multi input, keyed by the
// name of the node that sent them.
type linked[T any] map[string]scene.Handle[T]

// sync makes l match current. Handles that are no longer sent are unset,
// the rest are set in source name order.
func (l linked[T]) sync(node, term string, current map[string]any, set, unset func(scene.Handle[T])) error {
	for src, h := range l {
		if v, ok := current[src]; !ok || v != any(h) {
			unset(h)
			delete(l, src)
		}
	}
	names := make([]string, 0, len(current))
	for src := range current {
		names = append(names, src)
	}
	slices.Sort(names)
	for _, src := range names {
		h, ok := current[src].(scene.Handle[T])
		if !ok {
			var want scene.Handle[T]
			return &flow.InputError{Node: node, Terminal: term, Reason: fmt.Sprintf("%s sent %T, want %T", src, current[src], want)}
		}
		set(h)
		l[src] = h
	}
	return nil
}

func (l linked[T]) drop(src string, unset func(scene.Handle[T])) {
	if h, ok := l[src]; ok {
		unset(h)
		delete(l, src)
	}
}

func (l linked[T]) rename(old, name string) {
	if h, ok := l[old]; ok {
		delete(l, old)
		l[name] = h
	}
}
