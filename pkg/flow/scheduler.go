package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// sorted returns node names sorted so that every node follows its sources.
// Ties keep insertion order.
func (g *Graph) sorted() []string {
	indegree := make(map[string]int, len(g.order))
	for _, e := range g.edges {
		indegree[e.To.Node]++
	}
	out := make([]string, 0, len(g.order))
	done := make(map[string]bool, len(g.order))
	for len(out) < len(g.order) {
		progressed := false
		for _, name := range g.order {
			if done[name] || indegree[name] > 0 {
				continue
			}
			done[name] = true
			out = append(out, name)
			progressed = true
			for _, e := range g.edges {
				if e.From.Node == name {
					indegree[e.To.Node]--
				}
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func (g *Graph) inputs(name string) Inputs {
	e := g.entries[name]
	in := make(Inputs, len(e.terminals))
	for _, t := range e.terminals {
		if t.Dir != In {
			continue
		}
		if t.Multi {
			in[t.Name] = map[string]any{}
		}
	}
	for _, edge := range g.edges {
		if edge.To.Node != name {
			continue
		}
		v, ok := g.entries[edge.From.Node].outputs[edge.From.Terminal]
		if !ok || v == nil {
			continue
		}
		if e.terminals[edge.To.Terminal].Multi {
			in[edge.To.Terminal].(map[string]any)[edge.From.Node] = v
		} else {
			in[edge.To.Terminal] = v
		}
	}
	return in
}

// Process runs every dirty node in topological order and marks the nodes
// downstream of each run dirty. A failing node is logged, its outputs are
// cleared and the other branches still run. The node errors are returned
// joined.
func (g *Graph) Process(ctx context.Context) error {
	var errs []error
	for _, name := range g.sorted() {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		e := g.entries[name]
		if !e.dirty {
			continue
		}
		out, err := g.run(ctx, e, g.inputs(name))
		e.dirty = false
		e.err = err
		if err != nil {
			slog.Error("process node", "node", name, "err", err)
			e.outputs = nil
			errs = append(errs, err)
		} else {
			e.outputs = out
		}
		for _, edge := range g.edges {
			if edge.From.Node == name {
				g.entries[edge.To.Node].dirty = true
			}
		}
	}
	return errors.Join(errs...)
}

func (g *Graph) run(ctx context.Context, e *entry, in Inputs) (out Outputs, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("node %s panicked: %v", e.node.Name(), r)
		}
	}()
	return e.node.Process(ctx, in)
}
