package flow

import (
	"fmt"
	"slices"
)

type entry struct {
	node      Node
	terminals map[string]Terminal
	dirty     bool
	outputs   Outputs
	err       error
}

// Graph holds named nodes and the edges between their terminals. It is not
// safe for concurrent use; callers run it on one goroutine.
type Graph struct {
	entries map[string]*entry
	order   []string
	edges   []Edge
}

func New() *Graph {
	return &Graph{entries: make(map[string]*entry)}
}

// Add registers n under n.Name(). The node starts dirty.
func (g *Graph) Add(n Node) error {
	name := n.Name()
	if _, ok := g.entries[name]; ok {
		return fmt.Errorf("add %q: %w", name, ErrDuplicate)
	}
	e := &entry{node: n, terminals: make(map[string]Terminal), dirty: true}
	for _, t := range n.Terminals() {
		e.terminals[t.Name] = t
	}
	g.entries[name] = e
	g.order = append(g.order, name)
	return nil
}

func (g *Graph) Node(name string) (Node, bool) {
	e, ok := g.entries[name]
	if !ok {
		return nil, false
	}
	return e.node, true
}

// Nodes returns node names in insertion order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.order)
}

func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Outputs returns the cached outputs of the last successful run of name.
func (g *Graph) Outputs(name string) Outputs {
	if e, ok := g.entries[name]; ok {
		return e.outputs
	}
	return nil
}

// Err returns the error of the last run of name.
func (g *Graph) Err(name string) error {
	if e, ok := g.entries[name]; ok {
		return e.err
	}
	return nil
}

func (g *Graph) Dirty(name string) bool {
	e, ok := g.entries[name]
	return ok && e.dirty
}

func (g *Graph) MarkDirty(name string) {
	if e, ok := g.entries[name]; ok {
		e.dirty = true
	}
}

func (g *Graph) terminal(ep Endpoint, dir Direction) error {
	e, ok := g.entries[ep.Node]
	if !ok {
		return fmt.Errorf("%s: %w", ep.Node, ErrNoNode)
	}
	t, ok := e.terminals[ep.Terminal]
	if !ok || t.Dir != dir {
		return fmt.Errorf("%s (%s): %w", ep, dir, ErrNoTerminal)
	}
	return nil
}

// Connect links an output terminal to an input terminal and marks the
// destination dirty. A non Multi input takes a single edge.
func (g *Graph) Connect(srcNode, srcTerm, dstNode, dstTerm string) error {
	from := Endpoint{Node: srcNode, Terminal: srcTerm}
	to := Endpoint{Node: dstNode, Terminal: dstTerm}
	if err := g.terminal(from, Out); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := g.terminal(to, In); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	edge := Edge{From: from, To: to}
	if slices.Contains(g.edges, edge) {
		return nil
	}
	if !g.entries[dstNode].terminals[dstTerm].Multi {
		for _, e := range g.edges {
			if e.To == to {
				return fmt.Errorf("connect %s: %w", to, ErrOccupied)
			}
		}
	}
	if srcNode == dstNode || g.reaches(dstNode, srcNode) {
		return fmt.Errorf("connect %s -> %s: %w", from, to, ErrCycle)
	}
	g.edges = append(g.edges, edge)
	g.entries[dstNode].dirty = true
	return nil
}

// reaches reports whether to is downstream of from.
func (g *Graph) reaches(from, to string) bool {
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.edges {
			if e.From.Node != cur || seen[e.To.Node] {
				continue
			}
			if e.To.Node == to {
				return true
			}
			seen[e.To.Node] = true
			stack = append(stack, e.To.Node)
		}
	}
	return false
}

// Disconnect removes one edge. Both ends are told through Disconnected and
// the destination is marked dirty.
func (g *Graph) Disconnect(srcNode, srcTerm, dstNode, dstTerm string) error {
	edge := Edge{From: Endpoint{srcNode, srcTerm}, To: Endpoint{dstNode, dstTerm}}
	i := slices.Index(g.edges, edge)
	if i < 0 {
		return fmt.Errorf("disconnect %s -> %s: %w", edge.From, edge.To, ErrNotAnEdge)
	}
	g.edges = slices.Delete(g.edges, i, i+1)
	g.notifyDisconnected(edge)
	g.entries[dstNode].dirty = true
	return nil
}

func (g *Graph) notifyDisconnected(edge Edge) {
	if d, ok := g.entries[edge.To.Node].node.(Disconnecter); ok {
		d.Disconnected(edge.To.Terminal, edge.From)
	}
	if d, ok := g.entries[edge.From.Node].node.(Disconnecter); ok {
		d.Disconnected(edge.From.Terminal, edge.To)
	}
}

// Rename moves a node to a new name, rewrites its edges and calls Renamed
// on it and PeerRenamed on the far end of each edge.
// The node and everything downstream of it re-run.
func (g *Graph) Rename(old, name string) error {
	e, ok := g.entries[old]
	if !ok {
		return fmt.Errorf("rename %q: %w", old, ErrNoNode)
	}
	if old == name {
		return nil
	}
	if _, taken := g.entries[name]; taken {
		return fmt.Errorf("rename %q to %q: %w", old, name, ErrDuplicate)
	}
	delete(g.entries, old)
	g.entries[name] = e
	g.order[slices.Index(g.order, old)] = name
	var peers []Endpoint
	for i := range g.edges {
		if g.edges[i].From.Node == old {
			g.edges[i].From.Node = name
			peers = append(peers, g.edges[i].To)
		}
		if g.edges[i].To.Node == old {
			g.edges[i].To.Node = name
			peers = append(peers, g.edges[i].From)
		}
	}
	e.node.SetName(name)
	e.dirty = true
	if r, ok := e.node.(Renamer); ok {
		r.Renamed(old)
	}
	for _, p := range peers {
		if r, ok := g.entries[p.Node].node.(PeerRenamer); ok {
			r.PeerRenamed(p.Terminal, old, name)
		}
	}
	return nil
}

// Remove disconnects every edge of name, firing the hooks, then closes the
// node and forgets it.
func (g *Graph) Remove(name string) error {
	e, ok := g.entries[name]
	if !ok {
		return fmt.Errorf("remove %q: %w", name, ErrNoNode)
	}
	for _, edge := range g.Edges() {
		if edge.From.Node != name && edge.To.Node != name {
			continue
		}
		if err := g.Disconnect(edge.From.Node, edge.From.Terminal, edge.To.Node, edge.To.Terminal); err != nil {
			return err
		}
	}
	if c, ok := e.node.(Closer); ok {
		c.Close()
	}
	delete(g.entries, name)
	g.order = slices.DeleteFunc(g.order, func(n string) bool { return n == name })
	return nil
}

// Clear removes every node, newest first.
func (g *Graph) Clear() {
	for i := len(g.order) - 1; i >= 0; i-- {
		_ = g.Remove(g.order[i])
	}
}

// SetControl forwards a control value to the node and marks it dirty.
func (g *Graph) SetControl(name, key string, value any) error {
	e, ok := g.entries[name]
	if !ok {
		return fmt.Errorf("set control %q: %w", name, ErrNoNode)
	}
	c, ok := e.node.(Controller)
	if !ok {
		return fmt.Errorf("set control %s.%s: %w", name, key, ErrNoControl)
	}
	if err := c.SetControl(key, value); err != nil {
		return fmt.Errorf("set control %s.%s: %w", name, key, err)
	}
	e.dirty = true
	return nil
}
