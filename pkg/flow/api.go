// Package flow is a small dataflow engine. Nodes expose named input and
// output terminals; the graph runs dirty nodes in topological order and
// hands each one the cached outputs of its upstream nodes.
package flow

import (
	"context"
	"errors"
	"fmt"
)

type (
	Direction uint8

	Terminal struct {
		Name     string
		Dir      Direction
		Multi    bool
		Optional bool
	}

	// Inputs maps input terminal names to values. A Multi terminal holds a
	// map[string]any keyed by the name of each connected source node.
	Inputs map[string]any

	Outputs map[string]any

	Node interface {
		Name() string
		SetName(name string)
		Terminals() []Terminal
		Process(ctx context.Context, in Inputs) (Outputs, error)
	}

	Endpoint struct {
		Node     string
		Terminal string
	}

	Edge struct {
		From Endpoint
		To   Endpoint
	}

	// Disconnecter is notified when an edge touching the node goes away.
	Disconnecter interface {
		Disconnected(local string, remote Endpoint)
	}

	Renamer interface {
		Renamed(old string)
	}

	// PeerRenamer is told when a node at the far end of one of its edges
	// changes name. local is the terminal on this node.
	PeerRenamer interface {
		PeerRenamed(local, old, name string)
	}

	// Controller accepts UI control values by key.
	Controller interface {
		SetControl(key string, value any) error
	}

	Closer interface {
		Close()
	}
)

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}

func (e Endpoint) String() string {
	return e.Node + "." + e.Terminal
}

var (
	ErrNoNode      = errors.New("no such node")
	ErrNoTerminal  = errors.New("no such terminal")
	ErrDuplicate   = errors.New("name already in use")
	ErrCycle       = errors.New("connection would create a cycle")
	ErrOccupied    = errors.New("input already connected")
	ErrNoControl   = errors.New("node has no controls")
	ErrNotAnEdge   = errors.New("no such connection")
	ErrBadControl  = errors.New("bad control value")
	ErrUnknownType = errors.New("unknown node type")
)

// InputError reports a required input that is unset or has the wrong type.
type InputError struct {
	Node     string
	Terminal string
	Reason   string
}

func (e *InputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("node %s: input %s is not set", e.Node, e.Terminal)
	}
	return fmt.Sprintf("node %s: input %s: %s", e.Node, e.Terminal, e.Reason)
}

// Base carries a node name. Node implementations embed it.
type Base struct {
	name string
}

func NewBase(name string) Base {
	return Base{name: name}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) SetName(name string) {
	b.name = name
}

// Input returns in[name] as T. A missing or nil value yields ok=false; a
// value of another type is an InputError.
func Input[T any](node string, in Inputs, name string) (T, bool, error) {
	var zero T
	v, ok := in[name]
	if !ok || v == nil {
		return zero, false, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, false, &InputError{Node: node, Terminal: name, Reason: fmt.Sprintf("got %T, want %T", v, zero)}
	}
	return t, true, nil
}

// Required is Input for terminals that must be set.
func Required[T any](node string, in Inputs, name string) (T, error) {
	v, ok, err := Input[T](node, in, name)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, &InputError{Node: node, Terminal: name}
	}
	return v, nil
}

// Multi returns the values of a Multi terminal.
func Multi(in Inputs, name string) map[string]any {
	m, _ := in[name].(map[string]any)
	return m
}
